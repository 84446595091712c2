package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"Basalt/Models"

	"github.com/gofiber/fiber/v2"
)

// LogData contains the per-request information written to the log
type LogData struct {
	Timestamp time.Time     `json:"timestamp"`
	Method    string        `json:"method"`
	Path      string        `json:"path"`
	Status    int           `json:"status"`
	Latency   time.Duration `json:"latency"`
	IP        string        `json:"ip"`
	UserID    interface{}   `json:"user_id,omitempty"`
	Username  string        `json:"username,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// RequestLogger logs every request as a JSON line to logs/requests.log
// and a short line to the console
func RequestLogger() fiber.Handler {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		data := LogData{
			Timestamp: start,
			Method:    c.Method(),
			Path:      c.Path(),
			Status:    c.Response().StatusCode(),
			Latency:   time.Since(start),
			IP:        c.IP(),
		}
		if user, ok := c.Locals("user").(Models.User); ok {
			data.UserID = user.Id
			data.Username = user.Name
		}
		if err != nil {
			data.Error = err.Error()
		}

		log.Printf("%s %s %d %s%s", data.Method, data.Path, data.Status, data.Latency, userSuffix(data))

		jsonData, _ := json.Marshal(data)
		logToFile("logs/requests.log", string(jsonData))
		return err
	}
}

func userSuffix(data LogData) string {
	if data.UserID == nil {
		return ""
	}
	return fmt.Sprintf(" user:%v(%s)", data.UserID, data.Username)
}

// logToFile appends the message to the given log file
func logToFile(filePath, message string) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if len(message) > 0 && message[len(message)-1] != '\n' {
		message += "\n"
	}
	if _, err := file.WriteString(message); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}
