package ytstudio

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

// scriptEvalTimeout bounds evaluation of the page config script. The script is
// third-party and undocumented; a runaway loop must not hang login.
const scriptEvalTimeout = 10 * time.Second

// extractSessionIdentifiers recovers the channel ID and the delegated session
// ID from the Studio landing page HTML. The page builds its configuration at
// runtime inside an inline script, so the script body is executed in an
// isolated interpreter seeded with a stub window object and the identifiers
// are read off the resulting global.
//
// This is the single place that depends on the upstream page structure. When
// the page format drifts, only this file needs updating.
func extractSessionIdentifiers(page string) (channelID, onBehalfOfUser string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", "", &ExtractionError{Reason: "parsing page: " + err.Error()}
	}

	script := findConfigScript(doc)
	if script == "" {
		return "", "", &ExtractionError{Reason: "no inline ytcfg script found, check your cookies"}
	}

	return evalConfigScript(script)
}

// findConfigScript returns the body of the first inline script that carries
// the page-global ytcfg configuration object.
func findConfigScript(doc *goquery.Document) string {
	var found string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if _, external := sel.Attr("src"); external {
			return true
		}
		body := sel.Text()
		if strings.Contains(body, "ytcfg") {
			found = body
			return false
		}
		return true
	})
	return found
}

// evalConfigScript executes the config script in a throwaway goja VM. The VM
// has no host bindings beyond the stub window, so the third-party script
// cannot touch anything outside the interpreter. It is discarded on return;
// no evaluator state survives login.
func evalConfigScript(script string) (channelID, onBehalfOfUser string, err error) {
	vm := goja.New()
	timer := time.AfterFunc(scriptEvalTimeout, func() {
		vm.Interrupt("config script evaluation timed out")
	})
	defer timer.Stop()

	if _, err := vm.RunString(`var window = {ytcfg: {}};`); err != nil {
		return "", "", &ExtractionError{Reason: "seeding sandbox: " + err.Error()}
	}
	if _, err := vm.RunString(script + "\nwindow.ytcfg = ytcfg;"); err != nil {
		return "", "", &ExtractionError{Reason: "evaluating config script: " + err.Error()}
	}

	val, err := vm.RunString(`(function () {
		var data = window.ytcfg && window.ytcfg.data_;
		if (!data) return null;
		return [String(data.CHANNEL_ID || ""), String(data.DELEGATED_SESSION_ID || "")];
	})()`)
	if err != nil {
		return "", "", &ExtractionError{Reason: "reading config values: " + err.Error()}
	}

	pair, ok := val.Export().([]any)
	if !ok || len(pair) != 2 {
		return "", "", &ExtractionError{Reason: "CHANNEL_ID or DELEGATED_SESSION_ID not exposed by page script"}
	}
	channelID, _ = pair[0].(string)
	onBehalfOfUser, _ = pair[1].(string)
	if channelID == "" || onBehalfOfUser == "" {
		return "", "", &ExtractionError{Reason: "CHANNEL_ID or DELEGATED_SESSION_ID not exposed by page script"}
	}
	return channelID, onBehalfOfUser, nil
}
