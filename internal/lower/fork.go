package lower

import "github.com/hdlsim/vlower/internal/hdlast"

// markForkAncestors sets containsFork on every enclosing BeginBlock in
// blockStack (innermost first), stopping as soon as it finds one already
// marked. Since every Begin between here and the fork that's already marked
// must itself already have every one of ITS ancestors marked (from when it
// was first marked), this keeps the total marking work O(n) amortized
// across the whole traversal rather than O(depth) per fork encountered
// (spec.md §4.9).
func markForkAncestors(blockStack []hdlast.NamedBlock) {
	for i := len(blockStack) - 1; i >= 0; i-- {
		begin, ok := blockStack[i].(*hdlast.BeginBlock)
		if !ok {
			continue // ForkBlock ancestors don't carry the flag themselves
		}

		if begin.ContainsFork() {
			return
		}

		begin.MarkContainsFork()
	}
}
