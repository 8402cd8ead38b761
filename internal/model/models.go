package model

// AllModels lists every table for migrations
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},
		&Project{},
		&Contact{},
		&RFI{},
		&RFIAttachment{},
		&OTPCode{},
	}
}
