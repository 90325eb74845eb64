package converter

import (
	"dental-clinic-api/internal/billing"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
)

// PatientToResponse converts a Patient entity to its response DTO. The age
// is always re-derived from the birthdate when one is present; the stored
// age column only covers legacy rows without a birthdate.
func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	age := patient.Age
	birthdate := ""
	if patient.Birthdate != nil {
		age = billing.AgeNow(*patient.Birthdate)
		birthdate = patient.Birthdate.Format("2006-01-02")
	}

	return &dto.PatientResponse{
		ID:         patient.ID,
		Code:       patient.Code,
		Name:       patient.Name,
		LastName:   patient.LastName,
		Birthdate:  birthdate,
		Age:        age,
		NationalID: patient.NationalID,
		Email:      patient.Email,
		Phone:      patient.Phone,
		LastVisit:  patient.LastVisit,
		TotalSpent: patient.TotalSpent,
		CreatedAt:  patient.CreatedAt,
		UpdatedAt:  patient.UpdatedAt,
	}
}

func PatientsToResponses(patients []entity.Patient) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, 0, len(patients))
	for i := range patients {
		responses = append(responses, *PatientToResponse(&patients[i]))
	}
	return responses
}
