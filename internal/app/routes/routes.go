package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/controllers"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/middleware"
)

// Controllers groups the handlers mounted under /api/v1.
type Controllers struct {
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Faculty    *controllers.FacultyController
	Department *controllers.DepartmentController
	Catalog    *controllers.CatalogController
	Room       *controllers.RoomController
	Teacher    *controllers.TeacherController
	Course     *controllers.CourseController
	Timetable  *controllers.TimetableController
	Stats      *controllers.StatsController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public catalogue reads ---
	v1.GET("/faculties", c.Faculty.GetAllFaculties)
	v1.GET("/faculties/:id", c.Faculty.GetFacultyByID)
	v1.GET("/departments", c.Department.GetDepartments)
	v1.GET("/departments/:id", c.Department.GetDepartmentByID)
	v1.GET("/programs", c.Catalog.ListPrograms)
	v1.GET("/programs/:id", c.Catalog.GetProgram)
	v1.GET("/subjects", c.Catalog.ListSubjects)
	v1.GET("/subjects/:id", c.Catalog.GetSubject)
	v1.GET("/buildings", c.Room.ListBuildings)
	v1.GET("/rooms", c.Room.ListRooms)
	v1.GET("/rooms/:id", c.Room.GetRoom)
	v1.GET("/rooms/:id/availability", c.Room.CheckAvailability)
	v1.GET("/rooms/:id/occupancy", c.Room.GetOccupancy)

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), authMiddleware.ActiveAccountRequired())
	{
		authenticated.GET("/auth/profile", c.Auth.GetProfile)

		authenticated.GET("/timetable", c.Timetable.GetTimetable)
		authenticated.GET("/timetable/ws", c.Timetable.Subscribe)

		authenticated.GET("/courses", c.Course.ListCourses)
		authenticated.GET("/courses/search", c.Course.SearchCourses)
		authenticated.GET("/courses/:id", c.Course.GetCourse)

		authenticated.GET("/teachers", c.Teacher.ListTeachers)
		authenticated.GET("/teachers/:id", c.Teacher.GetTeacher)
		authenticated.GET("/teachers/:id/workload", c.Teacher.GetWorkload)

		// Ownership is checked by the unavailability service
		staff := authenticated.Group("")
		staff.Use(authMiddleware.RoleRequired(models.RoleAdmin, models.RoleTeacher))
		{
			staff.GET("/teachers/:id/unavailability", c.Teacher.ListUnavailabilities)
			staff.POST("/teachers/:id/unavailability", c.Teacher.DeclareUnavailability)
			staff.DELETE("/unavailability/:id", c.Teacher.DeleteUnavailability)
		}
	}

	// --- Admin routes ---
	admin := authenticated.Group("")
	admin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", c.User.GetUsers)
		admin.POST("/users", c.User.CreateUser)
		admin.GET("/users/:id", c.User.GetUserByID)
		admin.POST("/users/:id/deactivate", c.User.DeactivateUser)

		admin.POST("/faculties", c.Faculty.CreateFaculty)
		admin.PUT("/faculties/:id", c.Faculty.UpdateFaculty)
		admin.DELETE("/faculties/:id", c.Faculty.DeleteFaculty)

		admin.POST("/departments", c.Department.CreateDepartment)
		admin.PUT("/departments/:id", c.Department.UpdateDepartment)
		admin.DELETE("/departments/:id", c.Department.DeleteDepartment)

		admin.POST("/programs", c.Catalog.CreateProgram)
		admin.POST("/subjects", c.Catalog.CreateSubject)

		admin.POST("/buildings", c.Room.CreateBuilding)
		admin.POST("/rooms", c.Room.CreateRoom)
		admin.PUT("/rooms/:id", c.Room.UpdateRoom)
		admin.DELETE("/rooms/:id", c.Room.DeleteRoom)

		admin.POST("/courses", c.Course.CreateCourse)
		admin.POST("/courses/check-conflicts", c.Course.CheckConflicts)
		admin.PUT("/courses/:id", c.Course.UpdateCourse)
		admin.PATCH("/courses/:id/status", c.Course.UpdateCourseStatus)
		admin.DELETE("/courses/:id", c.Course.DeleteCourse)

		admin.PATCH("/unavailability/:id/approval", c.Teacher.ReviewUnavailability)

		admin.GET("/stats", c.Stats.GetStats)
	}
}
