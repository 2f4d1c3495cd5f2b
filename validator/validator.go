// Package validator is the static gate in front of the renderer. It decides,
// from the text alone, whether a submitted script may be executed.
//
// The scan is substring based. A denylisted name inside a comment or a string
// literal still rejects the script; that imprecision is accepted because
// there is no sandbox behind this check.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"manimserve/logger"
)

// RequiredImport must appear verbatim in every script.
const RequiredImport = "from manim import *"

// Verdict is the result of Validate. Reason is empty when Accepted is true.
type Verdict struct {
	Accepted bool     `json:"accepted"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var (
	// dangerousModules covers process, filesystem, network, serialization and
	// dynamic-execution capabilities. Each is matched in its import forms.
	dangerousModules = []string{
		"os", "sys", "subprocess", "shutil", "pathlib",
		"requests", "urllib", "socket", "pickle",
		"eval", "exec", "compile", "__import__",
	}

	dangerousCalls = []string{"eval(", "exec(", "compile(", "open("}

	constructMethod = "def construct(self):"

	// accessorWithoutCall matches e.g. "obj.get_center" not followed by "(".
	accessorWithoutCall = regexp.MustCompile(`\.get_(center|top|bottom|left|right|corner)([^(]|$)`)
)

type warningRule struct {
	token   string
	message string
}

var warningRules = []warningRule{
	{"Rotating(", "Rotating() can be unstable, consider Rotate() or .animate.rotate()"},
	{"MathTex(", "MathTex() requires a LaTeX installation, consider Text() instead"},
	{"Tex(", "Tex() requires a LaTeX installation, consider Text() instead"},
}

func importForms(name string) []string {
	return []string{
		"import " + name,
		"from " + name,
		`__import__("` + name + `")`,
		`__import__('` + name + `')`,
	}
}

func reject(reason string) Verdict {
	return Verdict{Reason: reason}
}

// Validate applies the rules in order and returns on the first rejection.
// Warnings never reject; they are logged and returned on the verdict.
func Validate(code string) Verdict {
	if !strings.Contains(code, RequiredImport) {
		return reject(fmt.Sprintf("Code must start with '%s'", RequiredImport))
	}

	for _, name := range dangerousModules {
		for _, form := range importForms(name) {
			if strings.Contains(code, form) {
				return reject("Dangerous import detected: " + name)
			}
		}
	}
	for _, call := range dangerousCalls {
		if strings.Contains(code, call) {
			return reject("Dangerous function detected: " + call)
		}
	}

	if !sceneClass.MatchString(code) && !threeDSceneClass.MatchString(code) {
		return reject("Code must contain a Scene or ThreeDScene class")
	}
	if !strings.Contains(code, constructMethod) {
		return reject("Scene class must have a construct() method")
	}

	var warnings []string
	log := logger.For("validator")
	for _, w := range warningRules {
		if strings.Contains(code, w.token) {
			// "MathTex(" also contains "Tex("; report it once.
			if w.token == "Tex(" && strings.Count(code, "Tex(") == strings.Count(code, "MathTex(") {
				continue
			}
			log.Warnf("%s", w.message)
			warnings = append(warnings, w.message)
		}
	}

	if m := accessorWithoutCall.FindStringSubmatch(code); m != nil {
		accessor := ".get_" + m[1]
		return Verdict{
			Reason:   fmt.Sprintf("Common Manim error detected: Missing parentheses: Use %s() instead of %s", accessor, accessor),
			Warnings: warnings,
		}
	}

	return Verdict{Accepted: true, Warnings: warnings}
}
