package bookings

// ParseBookingRequest carries a raw confirmation email. With DryRun set the
// parsed booking is returned without being stored.
type ParseBookingRequest struct {
	EmailBody string `json:"email_body" binding:"required"`
	DryRun    bool   `json:"dry_run"`
}

type BookingListQuery struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	PNR         string `form:"pnr" binding:"omitempty,len=6"`
	TrainNumber string `form:"train_number" binding:"omitempty,len=4,numeric"`
	DateFrom    string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo      string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
}
