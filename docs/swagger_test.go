package docs_test

import (
	"encoding/json"
	"testing"

	"taskspace/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, "Taskspace API", parsed["info"].(map[string]any)["title"])
	assert.Contains(t, parsed["paths"], "/tasks/{id}/priority")
}
