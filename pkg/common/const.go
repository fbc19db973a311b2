package common

const (
	KEY_INGEST_DEDUPE = "ingest_dedupe:%s"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)

const (
	TELEGRAM_API_BASE_URL = "https://api.telegram.org"
)
