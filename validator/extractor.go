package validator

import "regexp"

var (
	threeDSceneClass = regexp.MustCompile(`class\s+(\w+)\s*\(\s*ThreeDScene\s*\)`)
	sceneClass       = regexp.MustCompile(`class\s+(\w+)\s*\(\s*Scene\s*\)`)
)

// ExtractEntryPoint returns the name of the scene class the renderer should
// run. A ThreeDScene subclass anywhere in the text wins over a plain Scene.
// The second result is false when neither declaration is present.
func ExtractEntryPoint(code string) (string, bool) {
	for _, re := range []*regexp.Regexp{threeDSceneClass, sceneClass} {
		if m := re.FindStringSubmatch(code); m != nil {
			return m[1], true
		}
	}
	return "", false
}
