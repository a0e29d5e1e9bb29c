package workchain

// StepperState is the minimal serializable cursor needed to resume a
// Stepper: a path of child-selection indices from the Outline root to the
// next atomic step (spec.md §3). Loop nodes contribute no path entry of
// their own since they have exactly one child; the path records only the
// choices that are ambiguous (which sequence child, which conditional
// branch).
type StepperState struct {
	Path []int `json:"path"`
	// Done marks a Stepper that had already run off the end of the
	// outline when it was saved, so RecreateStepper can restore that
	// terminal condition without re-walking the tree.
	Done bool `json:"done"`
}

// Stepper is a serializable cursor walking a WorkChain's Outline. One
// Step() call executes exactly the next atomic step and returns
// (finished, result) per spec.md §4.1.
type Stepper struct {
	outline *Outline
	chain   *WorkChain
	cursor  []int // path to the next atomic step; nil means exhausted
	done    bool
}

// PropagateReturn is raised (via error return) when a Return outline node
// fires. do_step recognizes it and surfaces the optional exit code as
// terminal (spec.md §4.1).
type PropagateReturn struct {
	Code *ExitCode
}

func (p *PropagateReturn) Error() string { return "workchain: propagate-return" }

// Step executes exactly the next atomic step and returns (finished,
// result). Raises *PropagateReturn when a return_ node fires.
func (s *Stepper) Step() (finished bool, result StepResult, err error) {
	if s.done || s.cursor == nil {
		return true, nil, nil
	}

	leaf, walkErr := s.locate(s.cursor)
	if walkErr != nil {
		return false, nil, walkErr
	}

	switch n := leaf.(type) {
	case *returnNode:
		s.cursor = nil
		s.done = true
		return true, nil, &PropagateReturn{Code: n.code}
	case *atomicStepNode:
		result, err = n.fn(s.chain.Ctx())
		if err != nil {
			return false, nil, err
		}
	default:
		return false, nil, newChainError("INVALID_OUTLINE", "stepper located a non-leaf node", nil)
	}

	next, ok := s.advance(s.cursor)
	if !ok {
		s.cursor = nil
		s.done = true
		return true, result, nil
	}
	s.cursor = next
	return false, result, nil
}

// Save returns an opaque, serializable value capturing the full cursor.
func (s *Stepper) Save() StepperState {
	if s.done || s.cursor == nil {
		return StepperState{Done: true}
	}
	path := make([]int, len(s.cursor))
	copy(path, s.cursor)
	return StepperState{Path: path}
}

// locate walks the outline tree from the root applying path selections,
// returning the leaf (atomic or return node) at the end of the path.
func (s *Stepper) locate(path []int) (outlineNode, error) {
	node := s.outline.root
	i := 0
	for {
		switch n := node.(type) {
		case *atomicStepNode, *returnNode:
			if i != len(path) {
				return nil, newChainError("INVALID_CURSOR", "stepper cursor did not terminate at a leaf", nil)
			}
			return n.(outlineNode), nil
		case *sequenceNode:
			if i >= len(path) {
				return nil, newChainError("INVALID_CURSOR", "stepper cursor underflowed a sequence", nil)
			}
			idx := path[i]
			i++
			if idx < 0 || idx >= len(n.children) {
				return nil, newChainError("INVALID_CURSOR", "stepper cursor sequence index out of range", nil)
			}
			node = n.children[idx]
		case *conditionalNode:
			if i >= len(path) {
				return nil, newChainError("INVALID_CURSOR", "stepper cursor underflowed a conditional", nil)
			}
			selector := path[i]
			i++
			node = n.branch(selector)
			if node == nil {
				return nil, newChainError("INVALID_CURSOR", "stepper cursor selected an absent branch", nil)
			}
		case *loopNode:
			node = n.body
		default:
			return nil, newChainError("INVALID_CURSOR", "unknown outline node kind", nil)
		}
	}
}

// firstLeafPath finds the path (relative to node) to the first leaf inside
// node's subtree in document order, evaluating conditional and loop
// predicates along the way. ok=false means the subtree produces no leaf at
// all (an empty sequence, a false conditional with no else, or a loop whose
// predicate is false).
func (s *Stepper) firstLeafPath(node outlineNode) (path []int, ok bool) {
	if node == nil {
		return nil, false
	}
	switch n := node.(type) {
	case *atomicStepNode, *returnNode:
		return []int{}, true
	case *sequenceNode:
		for idx, child := range n.children {
			if rest, ok := s.firstLeafPath(child); ok {
				return append([]int{idx}, rest...), true
			}
		}
		return nil, false
	case *conditionalNode:
		selector := 0
		if !n.predicate(s.chain.Ctx()) {
			selector = 1
		}
		chosen := n.branch(selector)
		if rest, ok := s.firstLeafPath(chosen); ok {
			return append([]int{selector}, rest...), true
		}
		return nil, false
	case *loopNode:
		if n.predicate(s.chain.Ctx()) {
			if rest, ok := s.firstLeafPath(n.body); ok {
				return rest, true
			}
		}
		return nil, false
	}
	return nil, false
}

// advance computes the path to the next leaf in document order after the
// leaf located at path, or ok=false if the outline is exhausted.
func (s *Stepper) advance(path []int) ([]int, bool) {
	return s.advanceAt(s.outline.root, path)
}

func (s *Stepper) advanceAt(node outlineNode, path []int) ([]int, bool) {
	switch n := node.(type) {
	case *atomicStepNode, *returnNode:
		// The caller already executed this leaf; it has no children to
		// advance within, so signal "exhausted" to make the parent move on.
		return nil, false

	case *sequenceNode:
		idx := path[0]
		rest := path[1:]
		if newRest, ok := s.advanceAt(n.children[idx], rest); ok {
			return append([]int{idx}, newRest...), true
		}
		for next := idx + 1; next < len(n.children); next++ {
			if leafPath, ok := s.firstLeafPath(n.children[next]); ok {
				return append([]int{next}, leafPath...), true
			}
		}
		return nil, false

	case *conditionalNode:
		selector := path[0]
		rest := path[1:]
		chosen := n.branch(selector)
		if newRest, ok := s.advanceAt(chosen, rest); ok {
			return append([]int{selector}, newRest...), true
		}
		// A conditional fires its chosen branch exactly once per visit.
		return nil, false

	case *loopNode:
		if newRest, ok := s.advanceAt(n.body, path); ok {
			return newRest, true
		}
		// Body exhausted for this iteration: re-evaluate the predicate.
		// The source does not cache loop predicates and neither does this
		// implementation, since predicates may depend on Context that
		// changed during the body's execution (spec.md §9).
		if n.predicate(s.chain.Ctx()) {
			if leafPath, ok := s.firstLeafPath(n.body); ok {
				return leafPath, true
			}
		}
		return nil, false
	}
	return nil, false
}
