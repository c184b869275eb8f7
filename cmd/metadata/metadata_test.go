package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	assert.Equal(t, "list=true", params().Encode())

	fileLimit, hash, list, includeDeleted, rev = 10, "h1", false, true, "r2"
	defer func() {
		fileLimit, hash, list, includeDeleted, rev = 0, "", true, false, ""
	}()
	assert.Equal(t, "file_limit=10&hash=h1&list=false&include_deleted=true&rev=r2", params().Encode())
}
