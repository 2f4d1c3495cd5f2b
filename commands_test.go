package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const demoScript = "from manim import *\n\nclass Demo(ThreeDScene):\n    def construct(self):\n        t = MathTex('x')\n"

func TestCheckScript(t *testing.T) {
	var out bytes.Buffer
	scene, err := checkScript(&out, demoScript)
	require.NoError(t, err)
	require.Equal(t, "Demo", scene)
	require.Contains(t, out.String(), "warning: MathTex()")
	require.Contains(t, out.String(), "accepted: scene Demo")

	out.Reset()
	_, err = checkScript(&out, "import subprocess\n"+demoScript)
	require.ErrorIs(t, err, errRejected)
	require.Contains(t, out.String(), "rejected: Dangerous import detected: subprocess")
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.py")
	require.NoError(t, os.WriteFile(path, []byte(demoScript), 0644))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	t.Cleanup(func() { validateCmd.SetOut(nil) })
	require.NoError(t, validateCmd.RunE(validateCmd, []string{path}))
	require.Contains(t, out.String(), "accepted: scene Demo")

	require.Error(t, validateCmd.RunE(validateCmd, []string{filepath.Join(t.TempDir(), "missing.py")}))
}

func TestReadScriptFromStdin(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(demoScript))
	code, err := readScript(cmd, "-")
	require.NoError(t, err)
	require.Equal(t, demoScript, code)
}
