package generation

import "fmt"

// DecodeImageURLs reads output image URLs from a model response. Images are
// taken from "images", falling back to "output"; each entry is either a URL
// string or an object with a string "url". Entries of any other shape are
// skipped.
func DecodeImageURLs(resp map[string]any) []string {
	items := listValue(resp["images"])
	if len(items) == 0 {
		items = listValue(resp["output"])
	}
	var urls []string
	for _, item := range items {
		if u, ok := urlValue(item); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

// DecodeVideoURL checks "video", "url" then "output".
func DecodeVideoURL(resp map[string]any) (string, error) {
	for _, key := range []string{"video", "url", "output"} {
		v, ok := resp[key]
		if !ok {
			continue
		}
		if list, isList := v.([]any); isList && len(list) > 0 {
			v = list[0]
		}
		if u, ok := urlValue(v); ok {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: response keys %v", ErrNoVideoURL, keys(resp))
}

// listValue treats a single string or object as a one element list.
func listValue(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case string:
		if t == "" {
			return nil
		}
		return []any{t}
	case map[string]any:
		return []any{t}
	}
	return nil
}

func urlValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case map[string]any:
		if u, ok := t["url"].(string); ok && u != "" {
			return u, true
		}
	}
	return "", false
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
