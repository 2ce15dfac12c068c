package api

// TriggerResponse is the body returned to the trigger caller. Status is
// "ok" or "error"; DeliveredTo names the target room on success (the
// receiver's user id for direct messages, the room name otherwise).
type TriggerResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	DeliveredTo any    `json:"delivered_to,omitempty"`
}

func okResponse(deliveredTo any) *TriggerResponse {
	return &TriggerResponse{
		Status:      "ok",
		DeliveredTo: deliveredTo,
	}
}

func errorResponse(message string) *TriggerResponse {
	return &TriggerResponse{
		Status:  "error",
		Message: message,
	}
}
