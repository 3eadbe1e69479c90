package models

// Keys of options kept in the configuration table.
const (
	OptionExpiryWarningDays = "DAYS_BEFORE_EXPIRY_TO_WARN"
)
