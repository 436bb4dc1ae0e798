package catalog

// curatedAliases maps common spoken names to machine names. Manifest-declared
// aliases take precedence when both exist.
var curatedAliases = map[string]string{
	"http":         "httpRequest",
	"api":          "httpRequest",
	"rest":         "httpRequest",
	"webhook":      "webhook",
	"cron":         "scheduleTrigger",
	"schedule":     "scheduleTrigger",
	"timer":        "scheduleTrigger",
	"email":        "emailSend",
	"mail":         "emailSend",
	"db":           "postgres",
	"database":     "postgres",
	"postgres":     "postgres",
	"code":         "code",
	"script":       "code",
	"js":           "code",
	"if":           "if",
	"branch":       "if",
	"condition":    "if",
	"switch":       "switch",
	"merge":        "merge",
	"set":          "set",
	"transform":    "set",
	"slack":        "slack",
	"sheets":       "googleSheets",
	"spreadsheet":  "googleSheets",
	"openai":       "openAi",
	"llm":          "openAi",
	"manual":       "manualTrigger",
	"wait":         "wait",
	"delay":        "wait",
	"split":        "splitInBatches",
	"loop":         "splitInBatches",
	"notification": "slack",
}
