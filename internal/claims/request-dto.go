package claims

type ClaimListQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status Status `form:"status" binding:"omitempty,oneof=pending eligible submitted approved rejected expired"`
}

// ResolveClaimRequest records the carrier's decision on a submitted claim.
type ResolveClaimRequest struct {
	Status Status `json:"status" binding:"required,oneof=approved rejected"`
}
