package roomhandler

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Rooms  int    `json:"rooms"  example:"3"`
} // @name HealthResponse

type ListRoomsQuery struct {
	Limit  int `form:"limit,default=50" binding:"gte=1,lte=100"`
	Offset int `form:"offset,default=0" binding:"gte=0"`
} // @name ListRoomsQuery
