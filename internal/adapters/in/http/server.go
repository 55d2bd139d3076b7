package http

import (
	"log/slog"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/generated/servers"

	"github.com/labstack/echo/v4"
)

var _ servers.ServerInterface = (*Server)(nil)

// Server implements the ServerInterface for handling HTTP requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createAssignmentHandler commands.CreateAssignmentCommandHandler
	acceptAssignmentHandler commands.AcceptAssignmentCommandHandler
	rejectAssignmentHandler commands.RejectAssignmentCommandHandler
	cancelAssignmentHandler commands.CancelAssignmentCommandHandler
	pickUpOrderHandler      commands.PickUpOrderCommandHandler
	deliverOrderHandler     commands.DeliverOrderCommandHandler

	// Query handlers
	getAssignmentHandler         queries.GetAssignmentQueryHandler
	getPartnerAssignmentsHandler queries.GetPartnerAssignmentsQueryHandler

	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
// Failed requests are logged to logger; nil selects slog.Default().
func NewServer(
	createAssignmentHandler commands.CreateAssignmentCommandHandler,
	acceptAssignmentHandler commands.AcceptAssignmentCommandHandler,
	rejectAssignmentHandler commands.RejectAssignmentCommandHandler,
	cancelAssignmentHandler commands.CancelAssignmentCommandHandler,
	pickUpOrderHandler commands.PickUpOrderCommandHandler,
	deliverOrderHandler commands.DeliverOrderCommandHandler,
	getAssignmentHandler queries.GetAssignmentQueryHandler,
	getPartnerAssignmentsHandler queries.GetPartnerAssignmentsQueryHandler,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		createAssignmentHandler:      createAssignmentHandler,
		acceptAssignmentHandler:      acceptAssignmentHandler,
		rejectAssignmentHandler:      rejectAssignmentHandler,
		cancelAssignmentHandler:      cancelAssignmentHandler,
		pickUpOrderHandler:           pickUpOrderHandler,
		deliverOrderHandler:          deliverOrderHandler,
		getAssignmentHandler:         getAssignmentHandler,
		getPartnerAssignmentsHandler: getPartnerAssignmentsHandler,
		logger:                       logger,
	}
}

// CreateAssignment handles POST /api/v1/assignments - registers an order and
// runs the first attempt. 201 means a partner holds the lease, 202 that the
// order is still being matched.
func (s *Server) CreateAssignment(ctx echo.Context) error {
	var body servers.NewAssignment
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, servers.Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	order, err := toOrderContext(body)
	if err != nil {
		return s.respondError(ctx, err)
	}
	cmd, err := commands.NewCreateAssignmentCommand(order)
	if err != nil {
		return s.respondError(ctx, err)
	}

	a, err := s.createAssignmentHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.respondError(ctx, err)
	}

	return ctx.JSON(createdStatus(a.Status()), toAssignment(queries.NewAssignmentResponse(a)))
}

// GetAssignment handles GET /api/v1/assignments/{orderId}.
func (s *Server) GetAssignment(ctx echo.Context, orderID servers.OrderId) error {
	query, err := queries.NewGetAssignmentQuery(orderID)
	if err != nil {
		return s.respondError(ctx, err)
	}

	resp, err := s.getAssignmentHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toAssignment(resp))
}

// AcceptAssignment handles POST /api/v1/assignments/{orderId}/accept.
func (s *Server) AcceptAssignment(ctx echo.Context, orderID servers.OrderId) error {
	var body servers.PartnerAction
	if err := ctx.Bind(&body); err != nil {
		return invalidBody(ctx)
	}

	cmd, err := commands.NewAcceptAssignmentCommand(orderID, body.PartnerId)
	if err != nil {
		return s.respondError(ctx, err)
	}

	a, err := s.acceptAssignmentHandler.Handle(ctx.Request().Context(), cmd)
	return s.respondAssignment(ctx, a, err)
}

// RejectAssignment handles POST /api/v1/assignments/{orderId}/reject. The
// response reflects the follow-up attempt made right after the rejection.
func (s *Server) RejectAssignment(ctx echo.Context, orderID servers.OrderId) error {
	var body servers.RejectAssignment
	if err := ctx.Bind(&body); err != nil {
		return invalidBody(ctx)
	}

	cmd, err := commands.NewRejectAssignmentCommand(orderID, body.PartnerId, deref(body.Reason))
	if err != nil {
		return s.respondError(ctx, err)
	}

	a, err := s.rejectAssignmentHandler.Handle(ctx.Request().Context(), cmd)
	return s.respondAssignment(ctx, a, err)
}

// CancelAssignment handles POST /api/v1/assignments/{orderId}/cancel.
func (s *Server) CancelAssignment(ctx echo.Context, orderID servers.OrderId) error {
	cmd, err := commands.NewCancelAssignmentCommand(orderID)
	if err != nil {
		return s.respondError(ctx, err)
	}

	a, err := s.cancelAssignmentHandler.Handle(ctx.Request().Context(), cmd)
	return s.respondAssignment(ctx, a, err)
}

// PickUpOrder handles POST /api/v1/assignments/{orderId}/pickup.
func (s *Server) PickUpOrder(ctx echo.Context, orderID servers.OrderId) error {
	var body servers.PartnerAction
	if err := ctx.Bind(&body); err != nil {
		return invalidBody(ctx)
	}

	cmd, err := commands.NewPickUpOrderCommand(orderID, body.PartnerId)
	if err != nil {
		return s.respondError(ctx, err)
	}

	a, err := s.pickUpOrderHandler.Handle(ctx.Request().Context(), cmd)
	return s.respondAssignment(ctx, a, err)
}

// DeliverOrder handles POST /api/v1/assignments/{orderId}/deliver.
func (s *Server) DeliverOrder(ctx echo.Context, orderID servers.OrderId) error {
	var body servers.PartnerAction
	if err := ctx.Bind(&body); err != nil {
		return invalidBody(ctx)
	}

	cmd, err := commands.NewDeliverOrderCommand(orderID, body.PartnerId)
	if err != nil {
		return s.respondError(ctx, err)
	}

	a, err := s.deliverOrderHandler.Handle(ctx.Request().Context(), cmd)
	return s.respondAssignment(ctx, a, err)
}

// GetPartnerAssignments handles GET /api/v1/partners/{partnerId}/assignments.
func (s *Server) GetPartnerAssignments(ctx echo.Context, partnerID string) error {
	query, err := queries.NewGetPartnerAssignmentsQuery(partnerID)
	if err != nil {
		return s.respondError(ctx, err)
	}

	list, err := s.getPartnerAssignmentsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.respondError(ctx, err)
	}

	response := make([]servers.Assignment, len(list))
	for i, resp := range list {
		response[i] = toAssignment(resp)
	}
	return ctx.JSON(http.StatusOK, response)
}

func (s *Server) respondAssignment(ctx echo.Context, a *assignment.Assignment, err error) error {
	if err != nil {
		return s.respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, toAssignment(queries.NewAssignmentResponse(a)))
}

func createdStatus(status assignment.Status) int {
	switch status {
	case assignment.Assigned:
		return http.StatusCreated
	case assignment.Pending:
		return http.StatusAccepted
	default:
		return http.StatusOK
	}
}

func invalidBody(ctx echo.Context) error {
	return ctx.JSON(http.StatusBadRequest, servers.Error{
		Code:    http.StatusBadRequest,
		Message: "Invalid request body",
	})
}
