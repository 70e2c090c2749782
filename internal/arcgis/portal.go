package arcgis

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var serviceRoot = regexp.MustCompile(`/(FeatureServer|MapServer)/?$`)

// ResolveItemURL looks up a portal item and returns the URL of its layer.
// Items that point at a whole service resolve to the service's first layer.
func ResolveItemURL(ctx context.Context, c *Client, portalURL, itemID string) (string, error) {
	endpoint := fmt.Sprintf("%s/sharing/rest/content/items/%s", strings.TrimSuffix(portalURL, "/"), itemID)
	var item struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := c.Get(ctx, endpoint, nil, &item); err != nil {
		return "", fmt.Errorf("portal item %s: %w", itemID, err)
	}
	if item.URL == "" {
		return "", fmt.Errorf("portal item %s (%s) has no service url: %w", itemID, item.Type, ErrNoResults)
	}
	u := strings.TrimSuffix(item.URL, "/")
	if serviceRoot.MatchString(u) {
		u += "/0"
	}
	return u, nil
}
