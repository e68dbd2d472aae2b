package mq

import (
	"fmt"
	"regexp"
	"strings"
)

// TopicManager builds and parses the broker topics the server uses.
// Reports arrive on <base>/v1/reports/<displayId>; the computed
// snapshot is republished on <base>/v1/snapshot.
type TopicManager struct {
	BaseTopic string
}

const (
	ReportTopicTemplate   = "%s/v1/reports/+"
	SnapshotTopicTemplate = "%s/v1/snapshot"
)

func NewTopicManager(baseTopic string) *TopicManager {
	return &TopicManager{BaseTopic: strings.TrimSuffix(baseTopic, "/")}
}

func (m *TopicManager) GetReportTopic() string {
	return fmt.Sprintf(ReportTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) GetSnapshotTopic() string {
	return fmt.Sprintf(SnapshotTopicTemplate, m.BaseTopic)
}

func (m *TopicManager) buildTopicRegex(template string) *regexp.Regexp {
	pattern := strings.ReplaceAll(template, "%s", regexp.QuoteMeta(m.BaseTopic))
	pattern = strings.ReplaceAll(pattern, "+", "([^/]+)")
	pattern = "^" + pattern + "$"

	return regexp.MustCompile(pattern)
}

// ExtractDisplayID pulls the display id segment out of a report topic.
func (m *TopicManager) ExtractDisplayID(topic string) (string, error) {
	regex := m.buildTopicRegex(ReportTopicTemplate)
	matches := regex.FindStringSubmatch(topic)

	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract display id from topic: %s", topic)
	}

	return matches[1], nil
}
