package tasks

// DefineTasks registers all available tasks
func DefineTasks() {
	// Register general tasks
	RegisterHandler(LogInfoTask.TaskID(), LogInfoTask.HandleExecution)

	// Register billing tasks
	RegisterHandler(GenerateDemandBillsTask.TaskID(), GenerateDemandBillsTask.HandleExecution)
	RegisterHandler(MarkOverdueBillsTask.TaskID(), MarkOverdueBillsTask.HandleExecution)

	// Register notification tasks
	RegisterHandler(SendBillNotificationsTask.TaskID(), SendBillNotificationsTask.HandleExecution)
}
