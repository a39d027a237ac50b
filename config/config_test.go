package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleYAML = `
adapterKind: python
executable:
  command: /usr/bin/python-dap
  args: ["--port", "4711"]
mode: launch
arguments:
  program: /tmp/main.py
`

func TestParse_DecodesFullDocument(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	assert.NoError(t, err)
	assert.Equal(t, "python", c.AdapterKind)
	assert.Equal(t, Launch, c.Mode)
	assert.Equal(t, "/usr/bin/python-dap", c.Executable.Command)
	assert.Equal(t, []string{"--port", "4711"}, c.Executable.Args)
	assert.Equal(t, "/tmp/main.py", c.Arguments["program"])
}

func TestParse_RejectsMissingAdapterKind(t *testing.T) {
	_, err := Parse([]byte("mode: launch\n"))
	assert.Error(t, err)
}

func TestParse_RejectsInvalidMode(t *testing.T) {
	_, err := Parse([]byte("adapterKind: python\nmode: sideways\n"))
	assert.Error(t, err)
}

func TestParse_AppliesOptionsAfterValidation(t *testing.T) {
	c, err := Parse([]byte(sampleYAML), WithArgument("stopOnEntry", true))
	assert.NoError(t, err)
	assert.Equal(t, true, c.Arguments["stopOnEntry"])
	assert.Equal(t, "/tmp/main.py", c.Arguments["program"])
}

func TestLoad_WrapsReadError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
