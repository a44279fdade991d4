package workflow

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/uploads"
	"github.com/markflow/markflow/internal/workflow/router"
	"github.com/markflow/markflow/internal/workflow/service"
)

// Manager wires the workflow services and their routers together and owns
// route registration.
type Manager struct {
	registryService *service.RegistryService
	graphService    *service.GraphService
	taskService     *service.TaskService
	instanceService *service.InstanceService
	metricsService  *service.MetricsService
	userService     *service.UserService

	blockRouter    *router.BlockRouter
	workflowRouter *router.WorkflowRouter
	taskRouter     *router.TaskRouter
	userRouter     *router.UserRouter
}

// NewManager builds the full service graph on one database handle.
func NewManager(db *gorm.DB, uploadSvc *uploads.UploadService) *Manager {
	registryService := service.NewRegistryService(db)
	graphService := service.NewGraphService(db, registryService)
	taskService := service.NewTaskService(db)
	instanceService := service.NewInstanceService(db)
	metricsService := service.NewMetricsService(db)
	userService := service.NewUserService(db)

	return &Manager{
		registryService: registryService,
		graphService:    graphService,
		taskService:     taskService,
		instanceService: instanceService,
		metricsService:  metricsService,
		userService:     userService,

		blockRouter:    router.NewBlockRouter(registryService),
		workflowRouter: router.NewWorkflowRouter(graphService),
		taskRouter:     router.NewTaskRouter(taskService, instanceService, metricsService, uploadSvc),
		userRouter:     router.NewUserRouter(userService),
	}
}

// RegisterRoutes mounts every endpoint under /api.
func (m *Manager) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/blocks", m.blockRouter.HandleListBlocks)
	api.POST("/blocks", m.blockRouter.HandleRegisterBlock)

	api.GET("/workflows", m.workflowRouter.HandleListWorkflows)
	api.POST("/workflows", m.workflowRouter.HandleCreateWorkflow)
	api.GET("/workflows/:workflowID", m.workflowRouter.HandleGetWorkflow)
	api.PUT("/workflows/:workflowID", m.workflowRouter.HandleSaveWorkflow)
	api.DELETE("/workflows/:workflowID", m.workflowRouter.HandleDeleteWorkflow)
	api.POST("/workflows/:workflowID/blocks", m.workflowRouter.HandleAddBlock)
	api.PATCH("/workflows/:workflowID/blocks/:blockID", m.workflowRouter.HandleUpdateBlock)
	api.DELETE("/workflows/:workflowID/blocks/:blockID", m.workflowRouter.HandleRemoveBlock)
	api.POST("/workflows/:workflowID/connections", m.workflowRouter.HandleConnect)

	api.GET("/tasks", m.taskRouter.HandleListTasks)
	api.POST("/tasks", m.taskRouter.HandleCreateTask)
	api.GET("/tasks/:taskID", m.taskRouter.HandleGetTask)
	api.PUT("/tasks/:taskID", m.taskRouter.HandleUpdateTask)
	api.DELETE("/tasks/:taskID", m.taskRouter.HandleDeleteTask)
	api.PATCH("/tasks/:taskID/status", m.taskRouter.HandleUpdateTaskStatus)
	api.POST("/tasks/:taskID/apply-workflow/:workflowID", m.taskRouter.HandleApplyWorkflow)
	api.GET("/tasks/:taskID/steps", m.taskRouter.HandleGetSteps)
	api.PATCH("/tasks/:taskID/steps/:stepID/status", m.taskRouter.HandleUpdateStepStatus)
	api.POST("/tasks/:taskID/steps/:stepID/comments", m.taskRouter.HandleAddComment)
	api.POST("/tasks/:taskID/steps/:stepID/attachments", m.taskRouter.HandleAddAttachment)

	api.GET("/users", m.userRouter.HandleListUsers)
	api.POST("/users", m.userRouter.HandleCreateUser)
	api.GET("/users/:userID", m.userRouter.HandleGetUser)

	api.GET("/metrics/tasks", m.taskRouter.HandleTaskMetrics)
}
