package controllers

// Common request/response types for HTTP controllers

// subscriptionReq identifies one subscription.
type subscriptionReq struct {
	Provider string `json:"provider"`
	Feature  string `json:"feature"`
	ID       string `json:"id"`
}

// subscribersResp lists subscriber ids.
type subscribersResp struct {
	IDs []string `json:"ids"`
}

// pingReq asks for a notification to the given ids.
type pingReq struct {
	Provider string   `json:"provider"`
	IDs      []string `json:"ids"`
	Feature  string   `json:"feature"`
}

// broadcastReq asks for a notification to every subscriber of a feature.
type broadcastReq struct {
	Feature string `json:"feature"`
	Filter  string `json:"filter"`
}
