package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditLogFilter_Normalize(t *testing.T) {
	l, o := AuditLogFilter{}.Normalize()
	assert.Equal(t, 50, l)
	assert.Equal(t, 0, o)

	l, o = AuditLogFilter{Limit: 500, Offset: -3}.Normalize()
	assert.Equal(t, 50, l)
	assert.Equal(t, 0, o)

	l, o = AuditLogFilter{Limit: 20, Offset: 40}.Normalize()
	assert.Equal(t, 20, l)
	assert.Equal(t, 40, o)
}
