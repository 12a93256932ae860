package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAnalyzer(t *testing.T) {
	assert.NoError(t, ValidateAnalyzer("ESLint"))
	assert.NoError(t, ValidateAnalyzer("bandit"))
	assert.NoError(t, ValidateAnalyzer("CustomPattern"))
	assert.NoError(t, ValidateAnalyzer("Semgrep"))
	assert.Error(t, ValidateAnalyzer("pylint"))
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("security"))
	assert.NoError(t, ValidateCategory("Performance"))
	assert.NoError(t, ValidateCategory("quality"))
	assert.Error(t, ValidateCategory("style"))
}

func TestValidateProjectPath(t *testing.T) {
	assert.NoError(t, ValidateProjectPath("/home/dev/project"))
	assert.NoError(t, ValidateProjectPath("workspace/app"))

	assert.Error(t, ValidateProjectPath(""))
	assert.Error(t, ValidateProjectPath("../outside"))
	assert.Error(t, ValidateProjectPath("/etc/passwd"))
	assert.Error(t, ValidateProjectPath("/proc/self"))
	assert.Error(t, ValidateProjectPath("project; rm -rf /"))
	assert.Error(t, ValidateProjectPath("project$(whoami)"))
}

func TestValidateFilePath(t *testing.T) {
	assert.NoError(t, ValidateFilePath("src/app.js"))
	assert.Error(t, ValidateFilePath(""))
	assert.Error(t, ValidateFilePath("../../etc/passwd"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello world", SanitizeString("  hello world  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "a b", SanitizeString("a\x07 b"))
}

func TestValidateRunID(t *testing.T) {
	assert.NoError(t, ValidateRunID("123e4567-e89b-42d3-a456-426614174000"))
	assert.Error(t, ValidateRunID(""))
	assert.Error(t, ValidateRunID("not-a-uuid"))
}
