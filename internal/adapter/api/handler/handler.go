package handler

import (
	"github.com/labstack/echo/v4"

	"dms/internal/usecase"
	"dms/pkg/utils"
)

var (
	authHandler         *AuthHandler
	deviceHandler       *DeviceHandler
	distributionHandler *DistributionHandler
	defectHandler       *DefectHandler
	returnHandler       *ReturnHandler
	approvalHandler     *ApprovalHandler
	notificationHandler *NotificationHandler
	reportHandler       *ReportHandler
	dashboardHandler    *DashboardHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	workflowUseCase *usecase.WorkflowUseCase,
	notificationUseCase *usecase.NotificationUseCase,
	reportUseCase *usecase.ReportUseCase,
	dashboardUseCase *usecase.DashboardUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	deviceHandler = NewDeviceHandler(workflowUseCase)
	distributionHandler = NewDistributionHandler(workflowUseCase)
	defectHandler = NewDefectHandler(workflowUseCase)
	returnHandler = NewReturnHandler(workflowUseCase)
	approvalHandler = NewApprovalHandler(workflowUseCase)
	notificationHandler = NewNotificationHandler(notificationUseCase)
	reportHandler = NewReportHandler(reportUseCase)
	dashboardHandler = NewDashboardHandler(dashboardUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetDeviceHandler() *DeviceHandler {
	return deviceHandler
}

func GetDistributionHandler() *DistributionHandler {
	return distributionHandler
}

func GetDefectHandler() *DefectHandler {
	return defectHandler
}

func GetReturnHandler() *ReturnHandler {
	return returnHandler
}

func GetApprovalHandler() *ApprovalHandler {
	return approvalHandler
}

func GetNotificationHandler() *NotificationHandler {
	return notificationHandler
}

func GetReportHandler() *ReportHandler {
	return reportHandler
}

func GetDashboardHandler() *DashboardHandler {
	return dashboardHandler
}

// listQuery reads the shared list parameters: status, location, holder,
// deviceId, q, sort, page and limit.
func listQuery(c echo.Context) usecase.ListQuery {
	p := utils.GetPaginationParams(c)
	return usecase.ListQuery{
		Status:   c.QueryParam("status"),
		Location: c.QueryParam("location"),
		Holder:   c.QueryParam("holder"),
		DeviceID: c.QueryParam("deviceId"),
		Search:   c.QueryParam("q"),
		Sort:     c.QueryParam("sort"),
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

type decisionRequest struct {
	Decision usecase.Decision `json:"decision" validate:"required,oneof=approve reject"`
	Comments string           `json:"comments" validate:"max=1000"`
}
