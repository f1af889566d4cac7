package ytstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	"github.com/google/uuid"
)

// UploadState tracks the progress of one upload attempt.
type UploadState string

const (
	UploadStateIdle       UploadState = "IDLE"
	UploadStateReserved   UploadState = "RESERVED"
	UploadStateUploading  UploadState = "UPLOADING"
	UploadStateFinalizing UploadState = "FINALIZING"
	UploadStateRegistered UploadState = "REGISTERED"
	UploadStateFailed     UploadState = "FAILED"
)

// UploadMetadata is the initial metadata registered with a new video. Zero
// values are omitted from the registration call.
type UploadMetadata struct {
	Title       string
	Description string
	Privacy     Privacy
	Draft       *bool
}

// uploadSession is the per-upload resumable state: a client-generated upload
// identifier plus the resource id and upload URL handed back by the reserve
// step. Discarded once the video is registered.
type uploadSession struct {
	frontendUploadID string
	scottyResourceID string
	uploadURL        string
	state            UploadState
}

// UploadVideo uploads a video through the two-phase resumable protocol and
// registers it, returning the new video id.
//
// The content is streamed straight from r; it is never buffered whole. When a
// step is rate limited the advertised delay is honored and the step retried,
// which for the transfer step requires r to implement io.Seeker.
func (s *Studio) UploadVideo(ctx context.Context, r io.Reader, meta UploadMetadata) (string, error) {
	_, videoID, err := s.uploadVideo(ctx, r, meta)
	return videoID, err
}

func (s *Studio) uploadVideo(ctx context.Context, r io.Reader, meta UploadMetadata) (*uploadSession, string, error) {
	us := &uploadSession{
		frontendUploadID: fmt.Sprintf("innertube_studio:%s:0", uuid.New()),
		state:            UploadStateIdle,
	}

	if !s.session.populated {
		return us, "", ErrLoginRequired
	}

	s.validateUploadMetadata(meta)

	if err := s.reserveUpload(ctx, us); err != nil {
		us.state = UploadStateFailed
		return us, "", err
	}
	if err := s.transferUpload(ctx, us, r); err != nil {
		us.state = UploadStateFailed
		return us, "", err
	}
	videoID, err := s.registerVideo(ctx, us, meta)
	if err != nil {
		us.state = UploadStateFailed
		return us, "", err
	}

	us.state = UploadStateRegistered
	s.logger.Log("uploaded video %s", videoID)
	return us, videoID, nil
}

// reserveUpload requests a resumable upload session. The response must carry
// the scotty resource id and the upload URL in its headers.
func (s *Studio) reserveUpload(ctx context.Context, us *uploadSession) error {
	body, err := json.Marshal(map[string]any{"frontendUploadId": us.frontendUploadID})
	if err != nil {
		return &UploadError{Phase: UploadPhaseInit, Err: err}
	}

	resp, _, err := s.sendWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header = s.uploadHeaders("start")
		req.Header.Set("x-goog-upload-protocol", "resumable")
		req.Header.Set("content-type", "application/json")
		return req, nil
	})
	if err != nil {
		return &UploadError{Phase: UploadPhaseInit, Err: err}
	}

	us.scottyResourceID = resp.Header.Get("X-Goog-Upload-Header-Scotty-Resource-Id")
	us.uploadURL = resp.Header.Get("X-Goog-Upload-Url")
	if us.scottyResourceID == "" || us.uploadURL == "" {
		return &UploadError{
			Phase: UploadPhaseInit,
			Err:   fmt.Errorf("response missing scotty resource id or upload url (status %d)", resp.StatusCode),
		}
	}

	us.state = UploadStateReserved
	return nil
}

// transferUpload streams the content to the reserved upload URL and finalizes
// it in one shot (offset 0). The response must report STATUS_SUCCESS.
func (s *Studio) transferUpload(ctx context.Context, us *uploadSession, r io.Reader) error {
	us.state = UploadStateUploading

	first := true
	_, body, err := s.sendWithRetry(ctx, func() (*http.Request, error) {
		if !first {
			// A rate-limited transfer can only be replayed from a rewindable source.
			seeker, ok := r.(io.Seeker)
			if !ok {
				return nil, errors.New("cannot replay upload from a non-seekable source")
			}
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
		}
		first = false

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, us.uploadURL, r)
		if err != nil {
			return nil, err
		}
		req.Header = s.uploadHeaders("upload, finalize")
		req.Header.Set("x-goog-upload-offset", "0")
		return req, nil
	})
	if err != nil {
		return &UploadError{Phase: UploadPhaseTransfer, Err: err}
	}

	if _, err := checkResponse("upload transfer", body, nil, map[string]any{"status": "STATUS_SUCCESS"}); err != nil {
		return &UploadError{Phase: UploadPhaseTransfer, Err: err}
	}

	us.state = UploadStateFinalizing
	return nil
}

// registerVideo attaches the uploaded bytes to a new video via the metadata
// registration endpoint.
func (s *Studio) registerVideo(ctx context.Context, us *uploadSession, meta UploadMetadata) (string, error) {
	payload := s.baseEnvelope()
	payload["channelId"] = s.session.channelID
	payload["frontendUploadId"] = us.frontendUploadID
	payload["resourceId"] = map[string]any{
		"scottyResourceId": map[string]any{"id": us.scottyResourceID},
	}
	payload["initialMetadata"] = initialMetadata(meta)

	values, err := s.postEndpoint(ctx, "upload/createvideo", payload, []string{"videoId"}, nil)
	if err != nil {
		return "", &UploadError{Phase: UploadPhaseRegister, Err: err}
	}
	videoID, err := stringField(values, "upload/createvideo", "videoId")
	if err != nil {
		return "", &UploadError{Phase: UploadPhaseRegister, Err: err}
	}
	return videoID, nil
}

func initialMetadata(meta UploadMetadata) map[string]any {
	initial := map[string]any{}
	if meta.Title != "" {
		initial["title"] = map[string]any{"newTitle": meta.Title}
	}
	if meta.Description != "" {
		initial["description"] = map[string]any{"newDescription": meta.Description}
	}
	if meta.Privacy != "" {
		initial["privacy"] = map[string]any{"newPrivacy": string(meta.Privacy)}
	}
	if meta.Draft != nil {
		initial["draftState"] = map[string]any{"isDraft": *meta.Draft}
	}
	return initial
}

// uploadHeaders builds the signed header set for the binary upload endpoints.
func (s *Studio) uploadHeaders(command string) http.Header {
	return http.Header{
		"authorization":         {"SAPISIDHASH " + authSignature(s.sapisid, studioBaseURL, time.Now())},
		"x-goog-upload-command": {command},
		"x-origin":              {studioBaseURL},
		"user-agent":            {s.profile.UserAgent},
		"accept":                {"*/*"},
		"origin":                {studioBaseURL},
		"referer":               {studioBaseURL + "/"},
		"accept-encoding":       {"gzip, deflate, br, zstd"},
		"accept-language":       {"en-US,en;q=0.9"},
		http.HeaderOrderKey: {
			"authorization",
			"x-goog-upload-command",
			"x-goog-upload-protocol",
			"x-goog-upload-offset",
			"content-type",
			"x-origin",
			"user-agent",
			"accept",
			"origin",
			"referer",
			"accept-encoding",
			"accept-language",
			"Cookie",
		},
		http.PHeaderOrderKey: PseudoHeaderOrder,
	}
}

// validateUploadMetadata applies the advisory pre-flight checks. Violations
// are logged and never block; the server remains the authority.
func (s *Studio) validateUploadMetadata(meta UploadMetadata) {
	warnTitle(s.logger, meta.Title)
	warnDescription(s.logger, meta.Description)
}
