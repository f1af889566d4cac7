package ytstudio

import (
	"context"
	"encoding/base64"
	"strings"
	"time"
)

// Privacy is a video or playlist visibility value.
type Privacy string

const (
	PrivacyPrivate  Privacy = "PRIVATE"
	PrivacyUnlisted Privacy = "UNLISTED"
	PrivacyPublic   Privacy = "PUBLIC"
)

// AllowCommentsMode controls how comments are moderated.
type AllowCommentsMode string

const (
	CommentsAll       AllowCommentsMode = "ALL_COMMENTS"
	CommentsAutomated AllowCommentsMode = "AUTOMATED_COMMENTS"
	CommentsApproved  AllowCommentsMode = "APPROVED_COMMENTS"
)

// CommentSortOrder is the default comment ordering shown under a video.
type CommentSortOrder string

const (
	SortOrderLatest CommentSortOrder = "MDE_COMMENT_SORT_ORDER_LATEST"
	SortOrderTop    CommentSortOrder = "MDE_COMMENT_SORT_ORDER_TOP"
)

// Ternary is an explicit three-state flag for edit operations where omitted,
// false and true all mean different things: Unset leaves the setting
// unchanged, No and Yes issue the corresponding operation.
type Ternary int

const (
	TernaryUnset Ternary = iota
	TernaryNo
	TernaryYes
)

// Advisory limits enforced client-side as warnings only.
const (
	maxTitleLength       = 100
	maxDescriptionLength = 5000
	maxThumbnailBytes    = 2 * 1024 * 1024
	forbiddenTextChars   = "<>"
)

// String, Bool and Int return pointers for use in EditOptions.
func String(v string) *string { return &v }
func Bool(v bool) *bool       { return &v }
func Int(v int) *int          { return &v }

// EditOptions are the optional per-field deltas for EditVideo. A nil pointer
// (or zero value for the non-pointer fields) leaves the field unchanged; a
// pointer to the zero value clears it.
type EditOptions struct {
	Title       *string
	Description *string

	// Privacy sets immediate visibility. PublishAt schedules a future publish
	// instead: the video is forced PRIVATE until the scheduled time and
	// Privacy is ignored.
	Privacy   Privacy
	PublishAt *time.Time

	Tags       []string
	CategoryID int

	AllowComments     *bool
	AllowCommentsMode AllowCommentsMode
	CanViewRatings    *bool
	DefaultSortOrder  CommentSortOrder

	Monetization *bool

	MadeForKids   Ternary
	AgeRestricted Ternary

	// ThumbnailStillIndex selects a server-generated candidate (0-2);
	// ThumbnailImage uploads a custom image embedded as a data URI.
	ThumbnailStillIndex *int
	ThumbnailImage      []byte

	AddToPlaylistIDs      []string
	DeleteFromPlaylistIDs []string
}

// EditVideo updates a video's metadata. Only the provided fields are touched;
// the call fails with a ResponseShapeError unless the server reports
// UPDATE_SUCCESS.
func (s *Studio) EditVideo(ctx context.Context, videoID string, opts EditOptions) error {
	payload := s.baseEnvelope()
	for key, value := range buildEditEnvelope(s.logger, videoID, opts) {
		payload[key] = value
	}

	_, err := s.postEndpoint(ctx, "video_manager/metadata_update", payload, nil, map[string]any{
		"overallResult": map[string]any{"resultCode": "UPDATE_SUCCESS"},
	})
	return err
}

// CreatePlaylist creates a playlist and returns its id. privacy may be empty
// for the server default.
func (s *Studio) CreatePlaylist(ctx context.Context, title string, privacy Privacy) (string, error) {
	payload := s.baseEnvelope()
	payload["channelId"] = s.session.channelID
	payload["title"] = title
	if privacy != "" {
		payload["privacyStatus"] = string(privacy)
	}

	values, err := s.postEndpoint(ctx, "playlist/create", payload, []string{"playlistId"}, nil)
	if err != nil {
		return "", err
	}
	return stringField(values, "playlist/create", "playlistId")
}

// buildEditEnvelope is the pure transform from caller-supplied optional fields
// to the per-field delta objects of the metadata_update payload. Absent fields
// are omitted entirely, never nulled. Advisory violations go to logger.
func buildEditEnvelope(logger Logger, videoID string, opts EditOptions) map[string]any {
	delta := map[string]any{"encryptedVideoId": videoID}

	if opts.Title != nil {
		warnTitle(logger, *opts.Title)
		delta["title"] = map[string]any{"newTitle": *opts.Title}
	}
	if opts.Description != nil {
		warnDescription(logger, *opts.Description)
		delta["description"] = map[string]any{"newDescription": *opts.Description}
	}

	// A scheduled publish carries the target visibility inside the
	// scheduledPublishing instruction and keeps the video private until then.
	switch {
	case opts.PublishAt != nil:
		delta["scheduledPublishing"] = map[string]any{
			"set": map[string]any{
				"privacy": string(PrivacyPublic),
				"timeSec": opts.PublishAt.Unix(),
			},
		}
		delta["privacy"] = map[string]any{"newPrivacy": string(PrivacyPrivate)}
	case opts.Privacy != "":
		delta["privacy"] = map[string]any{"newPrivacy": string(opts.Privacy)}
	}

	if opts.Tags != nil {
		delta["tags"] = map[string]any{"newTags": opts.Tags}
	}
	if opts.CategoryID != 0 {
		delta["category"] = map[string]any{"newCategoryId": opts.CategoryID}
	}

	comments := map[string]any{}
	if opts.AllowComments != nil {
		comments["newAllowComments"] = *opts.AllowComments
	}
	if opts.AllowCommentsMode != "" {
		comments["newAllowCommentsMode"] = string(opts.AllowCommentsMode)
	}
	if opts.CanViewRatings != nil {
		comments["newCanViewRatings"] = *opts.CanViewRatings
	}
	if opts.DefaultSortOrder != "" {
		comments["newDefaultSortOrder"] = string(opts.DefaultSortOrder)
	}
	if len(comments) > 0 {
		delta["commentOptions"] = comments
	}

	if opts.Monetization != nil {
		delta["monetizationSettings"] = map[string]any{"newMonetization": *opts.Monetization}
	}
	if op := ternaryOperation(opts.MadeForKids, "MDE_MADE_FOR_KIDS", "MDE_NOT_MADE_FOR_KIDS"); op != "" {
		delta["madeForKids"] = map[string]any{"operation": op}
	}
	if op := ternaryOperation(opts.AgeRestricted, "MDE_AGE_RESTRICTED", "MDE_NOT_AGE_RESTRICTED"); op != "" {
		delta["racy"] = map[string]any{"operation": op}
	}

	if opts.AddToPlaylistIDs != nil || opts.DeleteFromPlaylistIDs != nil {
		playlists := map[string]any{}
		if opts.AddToPlaylistIDs != nil {
			playlists["addToPlaylistIds"] = opts.AddToPlaylistIDs
		}
		if opts.DeleteFromPlaylistIDs != nil {
			playlists["deleteFromPlaylistIds"] = opts.DeleteFromPlaylistIDs
		}
		delta["addToPlaylist"] = playlists
	}

	switch {
	case opts.ThumbnailStillIndex != nil:
		delta["videoStill"] = map[string]any{
			"operation":  "SET_AUTOGEN_STILL",
			"newStillId": *opts.ThumbnailStillIndex,
		}
	case len(opts.ThumbnailImage) > 0:
		if len(opts.ThumbnailImage) > maxThumbnailBytes {
			logger.Log("warning: thumbnail is %d bytes, above the %d byte limit", len(opts.ThumbnailImage), maxThumbnailBytes)
		}
		delta["videoStill"] = map[string]any{
			"operation": "UPLOAD_CUSTOM_THUMBNAIL",
			"image": map[string]any{
				"dataUri": "data:image/png;base64," + base64.StdEncoding.EncodeToString(opts.ThumbnailImage),
			},
		}
	}

	return delta
}

func ternaryOperation(t Ternary, yes, no string) string {
	switch t {
	case TernaryYes:
		return yes
	case TernaryNo:
		return no
	default:
		return ""
	}
}

func warnTitle(logger Logger, title string) {
	if title == "" {
		return
	}
	if len(title) > maxTitleLength {
		logger.Log("warning: title is %d characters, above the %d character limit", len(title), maxTitleLength)
	}
	if strings.ContainsAny(title, forbiddenTextChars) {
		logger.Log("warning: title contains forbidden characters (%s)", forbiddenTextChars)
	}
}

func warnDescription(logger Logger, description string) {
	if description == "" {
		return
	}
	if len(description) > maxDescriptionLength {
		logger.Log("warning: description is %d characters, above the %d character limit", len(description), maxDescriptionLength)
	}
	if strings.ContainsAny(description, forbiddenTextChars) {
		logger.Log("warning: description contains forbidden characters (%s)", forbiddenTextChars)
	}
}
