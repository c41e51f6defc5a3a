package directory

import "context"

type StoreAPI interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (*Employee, error)
	ListEmployees(ctx context.Context, tenantID string, limit, offset int) ([]Employee, int, error)
	ListActiveEmployees(ctx context.Context, tenantID string) ([]Employee, error)
	CreateEmployee(ctx context.Context, tenantID string, emp Employee) (string, error)
	SetEmployeeStatus(ctx context.Context, tenantID, employeeID, status string) error
	// UserIDForEmployee and ManagerUserID resolve notification targets.
	UserIDForEmployee(ctx context.Context, tenantID, employeeID string) (string, error)
	ManagerUserID(ctx context.Context, tenantID, employeeID string) (string, error)
	ListTenants(ctx context.Context) ([]string, error)
}
