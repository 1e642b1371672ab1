package layout

import (
	"fmt"

	"pressroom/pkg/geom"
	"pressroom/pkg/report"
)

// Walk visits n and its descendants in document order. Children of a node
// are skipped when fn returns false for it.
func Walk(n *RenderNode, fn func(*RenderNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Match returns every node below root, root included, for which pred holds.
func Match(root *RenderNode, pred func(*RenderNode) bool) []*RenderNode {
	var out []*RenderNode
	Walk(root, func(n *RenderNode) bool {
		if pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FindByType returns all nodes of type t.
func FindByType(root *RenderNode, t NodeType) []*RenderNode {
	return Match(root, func(n *RenderNode) bool { return n.Type == t })
}

// FindByInstanceID returns the first node created for the element id.
func FindByInstanceID(root *RenderNode, id report.InstanceID) *RenderNode {
	var found *RenderNode
	Walk(root, func(n *RenderNode) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// CheckContainment verifies that every child lies inside its parent's
// border box and has a non-negative size.
func CheckContainment(root *RenderNode) error {
	var err error
	Walk(root, func(n *RenderNode) bool {
		if err != nil {
			return false
		}
		if n.Width < 0 || n.Height < 0 {
			err = fmt.Errorf("negative size: %s", n)
			return false
		}
		bounds := geom.Rect{Width: n.Width, Height: n.Height}
		for _, c := range n.Children {
			// cells spanning rows extend into the rows below their own
			if c.Cell != nil && c.Cell.Rowspan > 1 {
				continue
			}
			if !bounds.Contains(c.Rect()) {
				err = fmt.Errorf("%s escapes %s", c, n)
				return false
			}
		}
		return true
	})
	return err
}
