package mapper

import (
	"time"

	"github.com/northpeak/logistics-api/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	return domain.ClientDTO{
		ID:           client.ID,
		CompanyName:  client.CompanyName,
		ClientName:   client.ClientName,
		ClientType:   client.ClientType,
		PhoneNumber:  client.PhoneNumber,
		TaxNumber:    client.TaxNumber,
		BranchNumber: client.BranchNumber,
		Latitude:     client.Latitude,
		Longitude:    client.Longitude,
		Street:       client.Street,
		City:         client.City,
		Region:       client.Region,
		CreatedAt:    client.CreatedAt.Format(timeFormat),
		UpdatedAt:    client.UpdatedAt.Format(timeFormat),
	}
}

// ToOrderDTO converts Order to OrderDTO
func ToOrderDTO(order *domain.Order) domain.OrderDTO {
	items := make([]domain.OrderItemDTO, len(order.Items))
	for i, item := range order.Items {
		items[i] = domain.OrderItemDTO{
			ID:          item.ID,
			Section:     item.Section,
			Type:        item.Type,
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
			VAT:         item.VAT,
			Subtotal:    item.Subtotal,
		}
	}

	dto := domain.OrderDTO{
		ID:                order.ID,
		CustomID:          order.CustomID,
		ClientID:          order.ClientID,
		DeliveryDate:      order.DeliveryDate.Format(timeFormat),
		DeliveryType:      order.DeliveryType,
		Notes:             order.Notes,
		TotalPrice:        order.TotalPrice,
		TotalVAT:          order.TotalVAT,
		TotalSubtotal:     order.TotalSubtotal,
		Status:            order.Status,
		StorekeeperAccept: order.StorekeeperAccept,
		SupervisorAccept:  order.SupervisorAccept,
		ManagerAccept:     order.ManagerAccept,
		Items:             items,
		CreatedAt:         order.CreatedAt.Format(timeFormat),
		UpdatedAt:         order.UpdatedAt.Format(timeFormat),
	}

	if order.ActualDeliveryDate != nil {
		dto.ActualDeliveryDate = order.ActualDeliveryDate.Format(timeFormat)
	}
	if order.Client != nil {
		client := ToClientDTO(order.Client)
		dto.Client = &client
	}

	return dto
}

// ToQuotationDTO converts Quotation to QuotationDTO
func ToQuotationDTO(q *domain.Quotation) domain.QuotationDTO {
	items := make([]domain.OrderItemDTO, len(q.Items))
	for i, item := range q.Items {
		items[i] = domain.OrderItemDTO{
			ID:          item.ID,
			Section:     item.Section,
			Type:        item.Type,
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
			VAT:         item.VAT,
			Subtotal:    item.Subtotal,
		}
	}

	dto := domain.QuotationDTO{
		ID:                q.ID,
		CustomID:          q.CustomID,
		ClientID:          q.ClientID,
		DeliveryDate:      q.DeliveryDate.Format(timeFormat),
		DeliveryType:      q.DeliveryType,
		Notes:             q.Notes,
		TotalPrice:        q.TotalPrice,
		TotalVAT:          q.TotalVAT,
		TotalSubtotal:     q.TotalSubtotal,
		Status:            q.Status,
		StorekeeperAccept: q.StorekeeperAccept,
		SupervisorAccept:  q.SupervisorAccept,
		ManagerAccept:     q.ManagerAccept,
		SupervisorID:      q.SupervisorID,
		Items:             items,
		CreatedAt:         q.CreatedAt.Format(timeFormat),
		UpdatedAt:         q.UpdatedAt.Format(timeFormat),
	}

	if q.ActualDeliveryDate != nil {
		dto.ActualDeliveryDate = q.ActualDeliveryDate.Format(timeFormat)
	}
	if q.Client != nil {
		client := ToClientDTO(q.Client)
		dto.Client = &client
	}

	return dto
}

// ToStaffDTO converts StaffUser to StaffDTO
func ToStaffDTO(s *domain.StaffUser) domain.StaffDTO {
	return domain.StaffDTO{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Role:      s.Role,
		Active:    s.Active,
		CreatedAt: s.CreatedAt.Format(timeFormat),
	}
}

// ParseDeliveryDate accepts either a bare date or a full RFC 3339 timestamp
func ParseDeliveryDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
