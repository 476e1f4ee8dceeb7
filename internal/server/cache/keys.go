package cache

// Keys shared by every component reading or writing aggregates in the cache.

func UserKey(id string) string      { return "User-" + id }
func UserListsKey(id string) string { return "User-" + id + "-Lists" }
func ListKey(id string) string      { return "List-" + id }
func ListTasksKey(id string) string { return "List-" + id + "-Tasks" }
func TaskKey(id string) string      { return "Task-" + id }
