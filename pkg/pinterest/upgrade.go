package pinterest

import "regexp"

// Size-token patterns, applied in this order. Already-upgraded URLs match
// none of them, so the transform is idempotent.
var (
	pathSizeRegex     = regexp.MustCompile(`/\d+x\d+/`)
	trailingSizeRegex = regexp.MustCompile(`/\d+x/`)
	suffixSizeRegex   = regexp.MustCompile(`_\d+x\d+\.`)
)

// UpgradeResolution rewrites an image URL's embedded size token so it
// requests the original (highest) resolution. URLs not hosted on the image
// CDN pass through unchanged. Pure string transform, no network access.
func UpgradeResolution(url string) string {
	if !IsCDNHosted(url) {
		return url
	}

	url = pathSizeRegex.ReplaceAllString(url, "/"+OriginalsToken+"/")
	url = trailingSizeRegex.ReplaceAllString(url, "/"+OriginalsToken+"/")
	url = suffixSizeRegex.ReplaceAllString(url, "_"+OriginalsToken+".")

	return url
}
