package shader_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/shader"
)

func TestSanitizeNamePassesThroughSafeNames(t *testing.T) {
	require.Equal(t, "relu", shader.SanitizeName("relu"))
	require.Equal(t, "anonymous", shader.SanitizeName(""))
}

func TestSanitizeNameRejectsCommentBreakout(t *testing.T) {
	require.Equal(t, "unnamed", shader.SanitizeName("relu\n*/ fn evil() {}"))
	require.Equal(t, "unnamed", shader.SanitizeName("a\nb"))
}
