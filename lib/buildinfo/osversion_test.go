//go:build !openbsd && !ios

package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimplifyKernel(t *testing.T) {
	assert.Equal(t, "10.0.19045", simplifyKernel("10.0.19045 Build 19045"))
	assert.Equal(t, "10.0.19045 Build 19046", simplifyKernel("10.0.19045 Build 19046"))
	assert.Equal(t, "5.15.0-76-generic", simplifyKernel("5.15.0-76-generic"))
}
