package eventbus

import "strings"

// Base topics, one per event stream.
var (
	TopicFeedEvents = NewTopic("news-pulse.feed.events")
)

var AllTopics = []Topic{
	TopicFeedEvents,
}

// RetryGroupID is the consumer group for a topic's retry reinjector. Every
// process reinjecting the same topic joins the same group so each retry
// message is moved once.
func RetryGroupID(groupID string, topic Topic) string {
	return groupID + "-retry-" + strings.ReplaceAll(topic.Base(), ".", "-")
}
