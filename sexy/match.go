package sexy

import "fmt"

// Match reports whether actual matches pattern. Atoms compare by type and
// text. Inside a list, an ellipsis matches zero or more items; an ellipsis
// standing alone matches any datum.
func Match(pattern, actual *Node) error {
	return match(pattern, actual, "root")
}

func match(pattern, actual *Node, path string) error {
	if pattern.Type == NodeEllipsis {
		return nil
	}
	if pattern.Type != actual.Type {
		return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
	}
	if pattern.Type != NodeList {
		if pattern.Text != actual.Text {
			return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
		}
		return nil
	}
	if !matchItems(pattern.Items, actual.Items, path) {
		// Report the first position that differs for lists of equal shape.
		if len(pattern.Items) == len(actual.Items) {
			for i := range pattern.Items {
				if err := match(pattern.Items[i], actual.Items[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
					return err
				}
			}
		}
		return fmt.Errorf("at %s: expected %s, got %s", path, pattern, actual)
	}
	return nil
}

func matchItems(patterns, actuals []*Node, path string) bool {
	if len(patterns) == 0 {
		return len(actuals) == 0
	}
	if patterns[0].Type == NodeEllipsis {
		for skip := 0; skip <= len(actuals); skip++ {
			if matchItems(patterns[1:], actuals[skip:], path) {
				return true
			}
		}
		return false
	}
	if len(actuals) == 0 {
		return false
	}
	if match(patterns[0], actuals[0], path) != nil {
		return false
	}
	return matchItems(patterns[1:], actuals[1:], path)
}
