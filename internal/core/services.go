package core

type Services struct {
	Process         *ProcessService
	Phase           *PhaseService
	PhaseType       *PhaseTypeService
	Membership      *MembershipService
	Attachment      *AttachmentService
	License         *LicenseService
	Customer        *CustomerService
	SoftwareVersion *SoftwareVersionService
	Document        *DocumentService
	User            *UserService
	APIKey          *APIKeyService
	File            *FileService
}

func NewServices(db DB, bus *Bus, blob BlobStore) *Services {
	return &Services{
		Process:         NewProcessService(db, bus),
		Phase:           NewPhaseService(db, bus, blob),
		PhaseType:       NewPhaseTypeService(db),
		Membership:      NewMembershipService(db, bus),
		Attachment:      NewAttachmentService(db, bus),
		License:         NewLicenseService(db, bus),
		Customer:        NewCustomerService(db),
		SoftwareVersion: NewSoftwareVersionService(db),
		Document:        NewDocumentService(db),
		User:            NewUserService(db),
		APIKey:          NewAPIKeyService(db),
		File:            NewFileService(db),
	}
}
