package arm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"
)

// ContinuationHeader is the header the recovery-point endpoints use to
// advertise the next page.
const ContinuationHeader = "x-ms-continuation"

// listEnvelope is the standard management list shape. nextLink is absent on
// the last page.
type listEnvelope struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"nextLink"`
}

// WalkLinkPages follows the body nextLink field until it is absent,
// accumulating the value arrays in order. ok is false only when the first
// page never resolved; a mid-walk failure ends the walk with whatever was
// collected, favoring completeness over a full abort.
func (c *Client) WalkLinkPages(ctx context.Context, target string) ([]json.RawMessage, bool) {
	logger := zerolog.Ctx(ctx)

	var items []json.RawMessage
	next := target
	for page := 0; next != ""; page++ {
		resp, ok := c.Get(ctx, next)
		if !ok {
			if page == 0 {
				return nil, false
			}
			logger.Warn().Str("url", next).Int("page", page).
				Msg("pagination aborted mid-walk")
			return items, true
		}

		var env listEnvelope
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			logger.Warn().Err(err).Str("url", next).Msg("unparseable list page")
			if page == 0 {
				return nil, false
			}
			return items, true
		}

		items = append(items, env.Value...)
		next = env.NextLink
	}
	return items, true
}

// WalkTokenPages follows a continuation token advertised in a response
// header, matched case-insensitively; an absent header means the last page.
// The token is echoed back on the next request under the same header name.
// enough, when non-nil, stops the walk as soon as the accumulated items
// satisfy the caller (e.g. two timestamps are plenty for a cadence gap).
func (c *Client) WalkTokenPages(
	ctx context.Context,
	target string,
	tokenHeader string,
	enough func(items []json.RawMessage) bool,
) ([]json.RawMessage, bool) {
	logger := zerolog.Ctx(ctx)
	if tokenHeader == "" {
		tokenHeader = ContinuationHeader
	}

	var items []json.RawMessage
	token := ""
	for page := 0; ; page++ {
		var extra map[string]string
		if token != "" {
			extra = map[string]string{tokenHeader: token}
		}
		resp, ok := c.get(ctx, target, extra)
		if !ok {
			if page == 0 {
				return nil, false
			}
			logger.Warn().Str("url", target).Int("page", page).
				Msg("pagination aborted mid-walk")
			return items, true
		}

		var env listEnvelope
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			logger.Warn().Err(err).Str("url", target).Msg("unparseable list page")
			if page == 0 {
				return nil, false
			}
			return items, true
		}
		items = append(items, env.Value...)

		if enough != nil && enough(items) {
			return items, true
		}

		token = headerLookup(resp.Header, tokenHeader)
		if token == "" {
			return items, true
		}
	}
}

// headerLookup matches a header name case-insensitively. net/http canonical
// form covers most cases, but proxies have been seen emitting continuation
// headers in arbitrary casing.
func headerLookup(h map[string][]string, name string) string {
	for k, vals := range h {
		if strings.EqualFold(k, name) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
