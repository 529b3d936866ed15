package scraper

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// trackerDomains are third parties seen on NZ retail product pages. None of
// them contribute to the product markup, and several delay DOM settling.
var trackerDomains = map[string]struct{}{
	"doubleclick.net":       {},
	"googlesyndication.com": {},
	"googleadservices.com":  {},
	"google-analytics.com":  {},
	"googletagmanager.com":  {},
	"facebook.net":          {},
	"facebook.com":          {},
	"hotjar.com":            {},
	"criteo.com":            {},
	"criteo.net":            {},
	"adnxs.com":             {},
	"demdex.net":            {},
	"omtrdc.net":            {},
	"quantummetric.com":     {},
	"bazaarvoice.com":       {},
	"yotpo.com":             {},
	"zip.co":                {},
	"afterpay.com":          {},
	"livechatinc.com":       {},
	"tiktok.com":            {},
	"pinimg.com":            {},
	"bing.com":              {},
	"clarity.ms":            {},
	"newrelic.com":          {},
	"nr-data.net":           {},
}

// isTracker reports whether host or any parent domain is a known tracker.
func isTracker(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for host != "" {
		if _, ok := trackerDomains[host]; ok {
			return true
		}
		i := strings.IndexByte(host, '.')
		if i < 0 {
			break
		}
		host = host[i+1:]
	}
	return false
}

// setupHijack fails requests for the blocked resource types and for
// tracker hosts. The caller must Stop the returned router. Scripts from the
// retailer itself are never blocked since client rendering needs them.
func setupHijack(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = struct{}{}
		}
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, ok := blocked[ctx.Request.Type()]; ok {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		if isTracker(ctx.Request.URL().Hostname()) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop.
	go router.Run()
	return router
}
