package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	c := &Client{projectID: "shop-prod"}

	assert.Equal(t, "projects/shop-prod/topics/orders", c.topicResourceName(" orders "))
	assert.Equal(t, "projects/other/topics/inventory", c.topicResourceName("projects/other/topics/inventory"))
	assert.Empty(t, c.topicResourceName(""))
	assert.Empty(t, (&Client{}).topicResourceName("orders"))
	assert.Empty(t, (*Client)(nil).topicResourceName("orders"))
}

func TestTopicNamesSkipsBlank(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "orders", InventoryTopic: "  "})
	assert.Equal(t, []string{"orders"}, names)
	assert.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())

	empty := &Client{projectID: "shop-prod"}
	assert.Nil(t, empty.Publisher("orders"))
	assert.Error(t, empty.Ping(context.Background()))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}
