package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func queryFor(t *testing.T, rawQuery string) Query {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return FromContext(c)
}

func TestFromContextDefaults(t *testing.T) {
	q := queryFor(t, "")
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, DefaultSize, q.Size)
}

func TestFromContextClamps(t *testing.T) {
	assert.Equal(t, DefaultPage, queryFor(t, "page=0").Page)
	assert.Equal(t, DefaultPage, queryFor(t, "page=-3").Page)
	assert.Equal(t, DefaultSize, queryFor(t, "size=garbage").Size)
	assert.Equal(t, MaxSize, queryFor(t, "size=5000").Size)
}

func TestFromContextValidValues(t *testing.T) {
	q := queryFor(t, "page=3&size=25")
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 25, q.Size)
}
