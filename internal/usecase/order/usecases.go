package order

// UseCases - все сценарии заказа на общих зависимостях.
type UseCases struct {
	Create             *CreateOrderUseCase
	Get                *GetOrderUseCase
	List               *ListOrdersUseCase
	History            *GetHistoryUseCase
	GetDeliverable     *GetDeliverableUseCase
	UpdateDetails      *UpdateOrderDetailsUseCase
	UpdateStatus       *UpdateStatusUseCase
	Cancel             *CancelOrderUseCase
	AssignCollaborator *AssignCollaboratorUseCase
	ApplyCommission    *ApplyCommissionUseCase
	SubmitDeliverable  *SubmitDeliverableUseCase
	ReviewDeliverable  *ReviewDeliverableUseCase
	AcceptDeliverable  *AcceptDeliverableUseCase
	RejectDeliverable  *RejectDeliverableUseCase
}

func NewUseCases(deps Dependencies) *UseCases {
	return &UseCases{
		Create:             NewCreateOrderUseCase(deps),
		Get:                NewGetOrderUseCase(deps),
		List:               NewListOrdersUseCase(deps),
		History:            NewGetHistoryUseCase(deps),
		GetDeliverable:     NewGetDeliverableUseCase(deps),
		UpdateDetails:      NewUpdateOrderDetailsUseCase(deps),
		UpdateStatus:       NewUpdateStatusUseCase(deps),
		Cancel:             NewCancelOrderUseCase(deps),
		AssignCollaborator: NewAssignCollaboratorUseCase(deps),
		ApplyCommission:    NewApplyCommissionUseCase(deps),
		SubmitDeliverable:  NewSubmitDeliverableUseCase(deps),
		ReviewDeliverable:  NewReviewDeliverableUseCase(deps),
		AcceptDeliverable:  NewAcceptDeliverableUseCase(deps),
		RejectDeliverable:  NewRejectDeliverableUseCase(deps),
	}
}
