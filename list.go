package ytstudio

import (
	"context"
	"encoding/json"
)

// ServerMaxPageSize is the largest page size the list endpoints accept.
const ServerMaxPageSize = 500

// FieldMask names the item fields the server should return. Values are either
// true for scalar fields or a nested mask (MaskAll for everything) for
// structured fields.
type FieldMask map[string]any

// MaskAll requests every sub-field of a masked structured field.
var MaskAll = map[string]any{"all": true}

// Item is one listed video or playlist, reduced to the masked fields.
type Item map[string]any

// ListVideos lists the channel's videos in server order. maxItems <= 0 lists
// everything.
func (s *Studio) ListVideos(ctx context.Context, maxItems int, mask FieldMask) ([]Item, error) {
	return s.listAll(ctx, "videos", maxItems, mask, false)
}

// ListPlaylists lists the channel's playlists in server order. maxItems <= 0
// lists everything.
func (s *Studio) ListPlaylists(ctx context.Context, maxItems int, mask FieldMask) ([]Item, error) {
	return s.listAll(ctx, "playlists", maxItems, mask, true)
}

// listAll drives repeated list calls until the item budget is met or the
// server stops returning a page token. Each returned item is itself pushed
// through the verify-then-extract contract against the mask, so a malformed
// item surfaces the same ResponseShapeError as a malformed response.
func (s *Studio) listAll(ctx context.Context, kind string, maxItems int, mask FieldMask, withChannelID bool) ([]Item, error) {
	endpoint := "creator/list_creator_" + kind

	pageSize := ServerMaxPageSize
	if maxItems > 0 && maxItems < pageSize {
		pageSize = maxItems
	}

	maskKeys := make([]string, 0, len(mask))
	for key := range mask {
		maskKeys = append(maskKeys, key)
	}

	var items []Item
	pageToken := ""
	for {
		payload := s.baseEnvelope()
		payload["mask"] = mask
		payload["pageSize"] = pageSize
		if withChannelID {
			payload["channelId"] = s.session.channelID
		}
		if pageToken != "" {
			payload["pageToken"] = pageToken
		}

		response, err := s.postEndpoint(ctx, endpoint, payload, nil, nil)
		if err != nil {
			return nil, err
		}

		page, ok := response[kind].([]any)
		if !ok {
			raw, _ := json.Marshal(response)
			return nil, &ResponseShapeError{Endpoint: endpoint, Missing: []string{kind}, Body: raw}
		}

		for _, element := range page {
			item, ok := element.(map[string]any)
			if !ok {
				raw, _ := json.Marshal(element)
				return nil, &ResponseShapeError{Endpoint: endpoint, Missing: maskKeys, Body: raw}
			}
			extracted, err := checkFields(endpoint, item, nil, maskKeys, nil)
			if err != nil {
				return nil, err
			}
			items = append(items, Item(extracted))
		}

		if maxItems > 0 && len(items) >= maxItems {
			return items[:maxItems], nil
		}

		// Absent page token signals the end of results.
		next, _ := response["nextPageToken"].(string)
		if next == "" {
			return items, nil
		}
		pageToken = next
	}
}
