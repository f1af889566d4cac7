package ytstudio

import (
	"errors"
	"testing"
)

const studioPageFixture = `<!DOCTYPE html>
<html lang="en">
<head>
<script src="https://www.gstatic.com/youtube/studio/polymer.js"></script>
<script nonce="abc123">
var ytcfg = {
  data_: {},
  get: function (key, fallback) {
    return key in this.data_ ? this.data_[key] : fallback;
  },
  set: function (values) {
    for (var key in values) { this.data_[key] = values[key]; }
  }
};
ytcfg.set({
  "CHANNEL_ID": "UCtestchannel1234567890",
  "DELEGATED_SESSION_ID": "107353261903123456789",
  "INNERTUBE_CONTEXT_CLIENT_NAME": 62,
  "EXPERIMENT_FLAGS": {"some_flag": true}
});
</script>
</head>
<body><div id="app"></div></body>
</html>`

func TestExtractSessionIdentifiers(t *testing.T) {
	channelID, onBehalfOfUser, err := extractSessionIdentifiers(studioPageFixture)
	if err != nil {
		t.Fatalf("extractSessionIdentifiers() error: %v", err)
	}
	if channelID != "UCtestchannel1234567890" {
		t.Errorf("channelID = %q, want %q", channelID, "UCtestchannel1234567890")
	}
	if onBehalfOfUser != "107353261903123456789" {
		t.Errorf("onBehalfOfUser = %q, want %q", onBehalfOfUser, "107353261903123456789")
	}
}

func TestExtractSessionIdentifiersFailures(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{
			name: "no inline script",
			page: `<html><head><script src="https://example.com/app.js"></script></head><body>hi</body></html>`,
		},
		{
			name: "script without config object",
			page: `<html><head><script>var unrelated = 1;</script></head></html>`,
		},
		{
			name: "config object missing identifiers",
			page: `<html><head><script>var ytcfg = {data_: {"INNERTUBE_CONTEXT_CLIENT_NAME": 62}};</script></head></html>`,
		},
		{
			name: "config object missing data",
			page: `<html><head><script>var ytcfg = {set: function () {}};</script></head></html>`,
		},
		{
			name: "script throws",
			page: `<html><head><script>var ytcfg = {}; document.write("boom");</script></head></html>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := extractSessionIdentifiers(tt.page)
			var ee *ExtractionError
			if !errors.As(err, &ee) {
				t.Fatalf("expected ExtractionError, got %v", err)
			}
		})
	}
}

func TestEvalConfigScriptIsolation(t *testing.T) {
	// Two evaluations must not see each other's state.
	script := `var ytcfg = {data_: {CHANNEL_ID: "UCa", DELEGATED_SESSION_ID: "1"}};
if (typeof leaked !== "undefined") { ytcfg.data_.CHANNEL_ID = "LEAKED"; }
var leaked = true;`

	for i := 0; i < 2; i++ {
		channelID, _, err := evalConfigScript(script)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if channelID != "UCa" {
			t.Fatalf("run %d: state leaked between evaluations, channelID = %q", i, channelID)
		}
	}
}
