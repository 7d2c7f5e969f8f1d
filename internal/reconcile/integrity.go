package reconcile

import (
	"errors"
	"fmt"

	"github.com/phobologic/layoutsync/internal/model"
)

// ErrIntegrity is wrapped by every structural violation CheckStructure finds.
var ErrIntegrity = errors.New("reconcile: integrity violation")

// CheckStructure verifies that roots form well-formed disjoint trees: every
// component appears once, parent pointers match the child lists, no tag is
// bound twice, and every component's tag name matches its tag.
func CheckStructure(roots []*model.Component) error {
	seen := make(map[*model.Component]struct{})
	tags := make(map[model.Tag]*model.Component)

	var walk func(c, parent *model.Component) error
	walk = func(c, parent *model.Component) error {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: component %s appears more than once", ErrIntegrity, c)
		}
		seen[c] = struct{}{}

		if c.Parent() != parent {
			return fmt.Errorf("%w: component %s has parent %v, want %v", ErrIntegrity, c, c.Parent(), parent)
		}
		if c.Tag() == nil {
			return fmt.Errorf("%w: component %s has no tag", ErrIntegrity, c)
		}
		if c.TagName() != c.Tag().Name() {
			return fmt.Errorf("%w: component %s bound to tag <%s>", ErrIntegrity, c, c.Tag().Name())
		}
		if other, dup := tags[c.Tag()]; dup {
			return fmt.Errorf("%w: tag <%s> bound to %s and %s", ErrIntegrity, c.Tag().Name(), other, c)
		}
		tags[c.Tag()] = c

		for _, child := range c.Children() {
			if child == c {
				return fmt.Errorf("%w: component %s is its own child", ErrIntegrity, c)
			}
			if err := walk(child, c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range roots {
		if err := walk(root, nil); err != nil {
			return err
		}
	}
	return nil
}

// checkSiblings asserts that a child tag list has no repeated tag and that
// no two of its tags are already bound to the same component.
func (u *updater) checkSiblings(subTags []model.Tag) {
	seenTags := make(map[model.Tag]struct{}, len(subTags))
	seen := make(map[*model.Component]struct{}, len(subTags))
	for _, t := range subTags {
		if _, dup := seenTags[t]; dup {
			panic(fmt.Errorf("%w: tag <%s> repeated among siblings", ErrIntegrity, t.Name()))
		}
		seenTags[t] = struct{}{}
		if c := u.tagToComponent[t]; c != nil {
			if _, dup := seen[c]; dup {
				panic(fmt.Errorf("%w: component %s bound to two sibling tags", ErrIntegrity, c))
			}
			seen[c] = struct{}{}
		}
	}
}
