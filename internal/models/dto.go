package models

type UserDto struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewUserDto(u *User) UserDto {
	return UserDto{ID: u.ID, Name: u.Name, Email: u.Email}
}

type ItemDto struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

func NewItemDto(i *Item) ItemDto {
	return ItemDto{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
	}
}

type BookingShort struct {
	ID       int64 `json:"id"`
	BookerID int64 `json:"bookerId"`
}

type CommentDto struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName"`
	Created    DateTime `json:"created"`
}

func NewCommentDto(c *Comment) CommentDto {
	return CommentDto{ID: c.ID, Text: c.Text, AuthorName: c.AuthorName, Created: NewDateTime(c.Created)}
}

// ItemDetails is an item with its comments and, for the owner, the neighbouring approved bookings.
type ItemDetails struct {
	ItemDto
	LastBooking *BookingShort `json:"lastBooking"`
	NextBooking *BookingShort `json:"nextBooking"`
	Comments    []CommentDto  `json:"comments"`
}

type BookingDto struct {
	ID     int64         `json:"id"`
	Start  DateTime      `json:"start"`
	End    DateTime      `json:"end"`
	Status BookingStatus `json:"status"`
	Item   ItemDto       `json:"item"`
	Booker UserDto       `json:"booker"`
}

func NewBookingDto(b *Booking, item *Item, booker *User) BookingDto {
	return BookingDto{
		ID:     b.ID,
		Start:  NewDateTime(b.Start),
		End:    NewDateTime(b.End),
		Status: b.Status,
		Item:   NewItemDto(item),
		Booker: NewUserDto(booker),
	}
}

type ItemRequestDto struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Created     DateTime  `json:"created"`
	Items       []ItemDto `json:"items"`
}

func NewItemRequestDto(r *ItemRequest, items []*Item) ItemRequestDto {
	dto := ItemRequestDto{
		ID:          r.ID,
		Description: r.Description,
		Created:     NewDateTime(r.Created),
		Items:       make([]ItemDto, 0, len(items)),
	}
	for _, it := range items {
		dto.Items = append(dto.Items, NewItemDto(it))
	}
	return dto
}
