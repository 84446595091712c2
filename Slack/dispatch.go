package Slack

import (
	"fmt"
	"log"
	"strings"
)

// NotifyAllocationWarnings posts the availability/operator warning list of
// a batch allocation to the dispatch channel. Best effort: failures are
// logged and never surfaced to the allocation caller.
func NotifyAllocationWarnings(createdCount int, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	client, channel := dispatchChannel()
	if client == nil {
		return
	}

	message := fmt.Sprintf("Allocation created %d hauling activities with warnings:\n• %s",
		createdCount, strings.Join(warnings, "\n• "))
	if _, err := client.SendMessage(channel, message); err != nil {
		log.Println("Slack allocation notification failed:", err)
	}
}

// NotifyDelay posts a delay event to the dispatch channel, best effort
func NotifyDelay(activityNumber string, minutes int, reason string) {
	client, channel := dispatchChannel()
	if client == nil {
		return
	}

	message := fmt.Sprintf("Haul %s delayed %d minutes", activityNumber, minutes)
	if reason != "" {
		message += " (" + reason + ")"
	}
	if _, err := client.SendMessage(channel, message); err != nil {
		log.Println("Slack delay notification failed:", err)
	}
}
