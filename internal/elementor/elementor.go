// Package elementor digs cover images out of the page builder's JSON blob
// stored in WordPress post metadata under _elementor_data.
package elementor

import "encoding/json"

// CoverImageURL parses raw Elementor JSON and returns the first
// background_image.url found anywhere in the tree, depth-first. ok is false
// when the blob is empty, unparseable or carries no background image.
func CoverImageURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	var tree interface{}
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return "", false
	}
	v, ok := findFirst(tree, func(node map[string]interface{}) (interface{}, bool) {
		bg, ok := node["background_image"].(map[string]interface{})
		if !ok {
			return nil, false
		}
		url, ok := bg["url"].(string)
		if !ok || url == "" {
			return nil, false
		}
		return url, true
	})
	if !ok {
		return "", false
	}
	return v.(string), true
}

// findFirst walks decoded JSON depth-first and returns the first value the
// predicate extracts from an object node. Arrays are walked in order, object
// children after the node itself.
func findFirst(tree interface{}, pred func(map[string]interface{}) (interface{}, bool)) (interface{}, bool) {
	switch node := tree.(type) {
	case []interface{}:
		for _, child := range node {
			if v, ok := findFirst(child, pred); ok {
				return v, true
			}
		}
	case map[string]interface{}:
		if v, ok := pred(node); ok {
			return v, true
		}
		for _, child := range node {
			if v, ok := findFirst(child, pred); ok {
				return v, true
			}
		}
	}
	return nil, false
}
