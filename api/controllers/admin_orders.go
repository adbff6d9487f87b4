package controllers

import (
	"net/http"

	"github.com/amaraokeke/pearlstrands-backend/api/responses"
	"github.com/amaraokeke/pearlstrands-backend/api/validators"
	ordersvc "github.com/amaraokeke/pearlstrands-backend/internal/orders"
	userrepo "github.com/amaraokeke/pearlstrands-backend/internal/users"
	"github.com/amaraokeke/pearlstrands-backend/pkg/enums"
	"github.com/amaraokeke/pearlstrands-backend/pkg/logger"
)

// AdminOrderUpdateStatus drives the state machine from the back office.
func AdminOrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body ordersvc.UpdateStatusInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateStatus(r.Context(), actor, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

func AdminOrderAssignDelivery(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body ordersvc.AssignDeliveryInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AssignDelivery(r.Context(), actor, orderID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// AdminDeliveryPersonnel lists active couriers for the assignment dropdown.
func AdminDeliveryPersonnel(repo *userrepo.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := repo.ListByRole(r.Context(), enums.UserRoleDelivery)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]userrepo.UserDTO, 0, len(records))
		for i := range records {
			out = append(out, userrepo.ToDTO(&records[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
