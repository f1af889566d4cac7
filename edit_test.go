package ytstudio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type silentLogger struct{}

func (silentLogger) Log(string, ...any) {}

func TestBuildEditEnvelopeTitleOnly(t *testing.T) {
	delta := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{Title: String("T")})

	if delta["encryptedVideoId"] != "vid1" {
		t.Errorf("encryptedVideoId = %v", delta["encryptedVideoId"])
	}
	title, ok := delta["title"].(map[string]any)
	if !ok || title["newTitle"] != "T" {
		t.Errorf("title = %v, want {newTitle: T}", delta["title"])
	}

	for _, key := range []string{"description", "videoStill", "scheduledPublishing", "madeForKids", "racy", "privacy", "commentOptions", "addToPlaylist", "tags", "category"} {
		if _, ok := delta[key]; ok {
			t.Errorf("unset field %s present: %v", key, delta[key])
		}
	}
}

func TestBuildEditEnvelopeClearVersusUnset(t *testing.T) {
	// nil leaves the field out entirely; a pointer to "" clears it.
	unset := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{})
	if _, ok := unset["description"]; ok {
		t.Error("nil description should be omitted")
	}

	cleared := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{Description: String("")})
	desc, ok := cleared["description"].(map[string]any)
	if !ok || desc["newDescription"] != "" {
		t.Errorf("cleared description = %v, want {newDescription: \"\"}", cleared["description"])
	}
}

func TestBuildEditEnvelopeScheduledPublish(t *testing.T) {
	publishAt := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	delta := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{
		Privacy:   PrivacyPublic, // ignored in favor of the schedule
		PublishAt: &publishAt,
	})

	scheduled, ok := delta["scheduledPublishing"].(map[string]any)
	if !ok {
		t.Fatalf("scheduledPublishing missing: %v", delta)
	}
	set := scheduled["set"].(map[string]any)
	if set["privacy"] != "PUBLIC" {
		t.Errorf("scheduled privacy = %v", set["privacy"])
	}
	if set["timeSec"] != publishAt.Unix() {
		t.Errorf("timeSec = %v, want %d", set["timeSec"], publishAt.Unix())
	}

	// The video stays private until the scheduled time.
	privacy := delta["privacy"].(map[string]any)
	if privacy["newPrivacy"] != "PRIVATE" {
		t.Errorf("top-level privacy = %v, want PRIVATE", privacy["newPrivacy"])
	}
}

func TestBuildEditEnvelopeTernaryFlags(t *testing.T) {
	tests := []struct {
		name string
		opts EditOptions
		key  string
		want string
	}{
		{"made for kids yes", EditOptions{MadeForKids: TernaryYes}, "madeForKids", "MDE_MADE_FOR_KIDS"},
		{"made for kids no", EditOptions{MadeForKids: TernaryNo}, "madeForKids", "MDE_NOT_MADE_FOR_KIDS"},
		{"age restricted yes", EditOptions{AgeRestricted: TernaryYes}, "racy", "MDE_AGE_RESTRICTED"},
		{"age restricted no", EditOptions{AgeRestricted: TernaryNo}, "racy", "MDE_NOT_AGE_RESTRICTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := buildEditEnvelope(silentLogger{}, "vid1", tt.opts)
			field, ok := delta[tt.key].(map[string]any)
			if !ok || field["operation"] != tt.want {
				t.Errorf("%s = %v, want operation %s", tt.key, delta[tt.key], tt.want)
			}
		})
	}

	t.Run("unset flags omitted", func(t *testing.T) {
		delta := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{})
		if _, ok := delta["madeForKids"]; ok {
			t.Error("unset madeForKids present")
		}
		if _, ok := delta["racy"]; ok {
			t.Error("unset racy present")
		}
	})
}

func TestBuildEditEnvelopeThumbnail(t *testing.T) {
	t.Run("autogenerated still", func(t *testing.T) {
		delta := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{ThumbnailStillIndex: Int(2)})
		still := delta["videoStill"].(map[string]any)
		if still["operation"] != "SET_AUTOGEN_STILL" || still["newStillId"] != 2 {
			t.Errorf("videoStill = %v", still)
		}
	})

	t.Run("custom image", func(t *testing.T) {
		image := []byte{0x89, 0x50, 0x4e, 0x47}
		delta := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{ThumbnailImage: image})
		still := delta["videoStill"].(map[string]any)
		if still["operation"] != "UPLOAD_CUSTOM_THUMBNAIL" {
			t.Errorf("operation = %v", still["operation"])
		}
		uri := still["image"].(map[string]any)["dataUri"].(string)
		want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)
		if uri != want {
			t.Errorf("dataUri = %q, want %q", uri, want)
		}
	})
}

func TestBuildEditEnvelopeCommentsAndPlaylists(t *testing.T) {
	delta := buildEditEnvelope(silentLogger{}, "vid1", EditOptions{
		AllowComments:         Bool(true),
		AllowCommentsMode:     CommentsApproved,
		DefaultSortOrder:      SortOrderTop,
		AddToPlaylistIDs:      []string{"PL1", "PL2"},
		DeleteFromPlaylistIDs: []string{"PL3"},
		Tags:                  []string{"go", "studio"},
		CategoryID:            22,
	})

	comments := delta["commentOptions"].(map[string]any)
	if comments["newAllowComments"] != true {
		t.Errorf("newAllowComments = %v", comments["newAllowComments"])
	}
	if comments["newAllowCommentsMode"] != "APPROVED_COMMENTS" {
		t.Errorf("newAllowCommentsMode = %v", comments["newAllowCommentsMode"])
	}
	if comments["newDefaultSortOrder"] != "MDE_COMMENT_SORT_ORDER_TOP" {
		t.Errorf("newDefaultSortOrder = %v", comments["newDefaultSortOrder"])
	}
	if _, ok := comments["newCanViewRatings"]; ok {
		t.Error("unset newCanViewRatings present")
	}

	playlists := delta["addToPlaylist"].(map[string]any)
	if got := playlists["addToPlaylistIds"].([]string); len(got) != 2 {
		t.Errorf("addToPlaylistIds = %v", got)
	}
	if got := playlists["deleteFromPlaylistIds"].([]string); len(got) != 1 || got[0] != "PL3" {
		t.Errorf("deleteFromPlaylistIds = %v", got)
	}

	if delta["tags"].(map[string]any)["newTags"].([]string)[0] != "go" {
		t.Errorf("tags = %v", delta["tags"])
	}
	if delta["category"].(map[string]any)["newCategoryId"] != 22 {
		t.Errorf("category = %v", delta["category"])
	}
}

type warningCollector struct {
	warnings []string
}

func (c *warningCollector) Log(format string, args ...any) {
	if strings.HasPrefix(format, "warning:") {
		c.warnings = append(c.warnings, format)
	}
}

func TestEditAdvisoryWarningsDoNotBlock(t *testing.T) {
	collector := &warningCollector{}
	delta := buildEditEnvelope(collector, "vid1", EditOptions{
		Title:          String(strings.Repeat("a", maxTitleLength+1) + "<b>"),
		Description:    String(strings.Repeat("d", maxDescriptionLength+1)),
		ThumbnailImage: bytes.Repeat([]byte{1}, maxThumbnailBytes+1),
	})

	if len(collector.warnings) < 3 {
		t.Errorf("expected at least 3 advisory warnings, got %v", collector.warnings)
	}
	// The envelope is still fully built.
	for _, key := range []string{"title", "description", "videoStill"} {
		if _, ok := delta[key]; !ok {
			t.Errorf("advisory warning blocked field %s", key)
		}
	}
}

func TestEditVideo(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtubei/v1/video_manager/metadata_update" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"overallResult": {"resultCode": "UPDATE_SUCCESS"}}`))
	}))
	defer server.Close()

	s, _ := newTestStudio(t, server.URL)

	if err := s.EditVideo(context.Background(), "vid1", EditOptions{Title: String("T")}); err != nil {
		t.Fatalf("EditVideo() error: %v", err)
	}
	if captured["encryptedVideoId"] != "vid1" {
		t.Errorf("encryptedVideoId = %v", captured["encryptedVideoId"])
	}
	if _, ok := captured["context"]; !ok {
		t.Error("request context missing from edit payload")
	}
}

func TestEditVideoFailureCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"overallResult": {"resultCode": "UPDATE_FAILURE_UNKNOWN"}}`))
	}))
	defer server.Close()

	s, _ := newTestStudio(t, server.URL)

	err := s.EditVideo(context.Background(), "vid1", EditOptions{Title: String("T")})
	if !IsResponseShapeError(err) {
		t.Fatalf("expected ResponseShapeError, got %v", err)
	}
	if !strings.Contains(err.Error(), "UPDATE_FAILURE_UNKNOWN") {
		t.Errorf("raw response not preserved in %v", err)
	}
}
