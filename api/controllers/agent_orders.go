package controllers

import (
	"net/http"

	"github.com/jkimani/campus-delivery-backend/api/middleware"
	"github.com/jkimani/campus-delivery-backend/api/responses"
	"github.com/jkimani/campus-delivery-backend/api/validators"
	"github.com/jkimani/campus-delivery-backend/internal/orders"
	"github.com/jkimani/campus-delivery-backend/pkg/enums"
	"github.com/jkimani/campus-delivery-backend/pkg/logger"
)

// AgentAssignedOrders lists orders assigned to the authenticated agent.
func AgentAssignedOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := orderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAssigned(r.Context(), agentID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AgentUpdateDeliveryStatus advances the delivery state or tracking
// number on an order. Agents are limited to their own assignments;
// admins may update any order.
func AgentUpdateDeliveryStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role := enums.UserRole(middleware.RoleFromContext(r.Context()))

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body orders.UpdateDeliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateDeliveryStatus(r.Context(), orderID, actorID, role, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
